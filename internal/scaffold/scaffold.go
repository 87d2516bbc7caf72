// Package scaffold generates a new project from a template tree,
// startproject-style: the template is copied to the destination and
// placeholder tokens are substituted in files with template extensions.
//
// Supported placeholders:
//
//	{{ project_name }}          the normalized project name
//	{{ project_name | title }}  the name with underscores as spaces, titled
//	{{ project_directory }}     absolute path of the generated project
//	{{ secret_key }}            a freshly generated random secret
package scaffold

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// templateExtensions are the file types subject to token substitution;
// everything else is copied verbatim.
var templateExtensions = map[string]struct{}{
	".go":   {},
	".py":   {},
	".json": {},
	".js":   {},
	".md":   {},
	".conf": {},
	".env":  {},
	".yaml": {},
	".yml":  {},
	".toml": {},
	".mod":  {},
}

var (
	projectNamePattern      = regexp.MustCompile(`\{\{\s*project_name\s*\}\}`)
	projectNameTitlePattern = regexp.MustCompile(`\{\{\s*project_name\s*\|\s*title\s*\}\}`)
	projectDirectoryPattern = regexp.MustCompile(`\{\{\s*project_directory\s*\}\}`)
	secretKeyPattern        = regexp.MustCompile(`\{\{\s*secret_key\s*\}\}`)
)

// secretKeyChars weights the special characters the same way the classic
// startproject generators do.
const secretKeyChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"@%*=&!#^@%*=&!#^@%*=&!#^@%*=&!#^@%*=&!#^"

const secretKeyLength = 50

// NormalizeName validates and normalizes a project name: it must be
// non-empty and contain no blank characters; dashes are replaced with
// underscores.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("project name must be provided")
	}
	if regexp.MustCompile(`\s`).MatchString(name) {
		return "", fmt.Errorf("project name cannot contain blank characters")
	}
	return strings.ReplaceAll(strings.ToLower(name), "-", "_"), nil
}

// TitleName renders the human-readable form of a normalized name:
// underscores become spaces and each word is capitalized.
func TitleName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// SecretKey generates a random 50-character secret.
func SecretKey() (string, error) {
	max := big.NewInt(int64(len(secretKeyChars)))
	out := make([]byte, secretKeyLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate secret key: %w", err)
		}
		out[i] = secretKeyChars[n.Int64()]
	}
	return string(out), nil
}

// Options configures one generation run.
type Options struct {
	TemplateDir string
	ProjectName string // raw name; normalized during Generate
	DestDir     string // parent directory; the project lands in DestDir/<name>
}

// Result reports what Generate produced.
type Result struct {
	ProjectName string
	ProjectDir  string
	Files       int
}

// Generate copies the template tree and substitutes placeholder tokens.
// The destination project directory must not already exist.
func Generate(opts Options) (*Result, error) {
	name, err := NormalizeName(opts.ProjectName)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(opts.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path %q is not a directory", opts.TemplateDir)
	}

	destParent := opts.DestDir
	if destParent == "" {
		destParent = "."
	}
	projectDir, err := filepath.Abs(filepath.Join(destParent, name))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(projectDir); err == nil {
		return nil, fmt.Errorf("destination %q already exists", projectDir)
	}

	secret, err := SecretKey()
	if err != nil {
		return nil, err
	}
	vars := map[*regexp.Regexp]string{
		// Title must be substituted before the plain name pattern; the
		// plain pattern does not match the piped form, but order keeps
		// the intent obvious.
		projectNameTitlePattern: TitleName(name),
		projectNamePattern:      name,
		projectDirectoryPattern: projectDir,
		secretKeyPattern:        secret,
	}

	result := &Result{ProjectName: name, ProjectDir: projectDir}
	err = filepath.Walk(opts.TemplateDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(opts.TemplateDir, path)
		if err != nil {
			return err
		}
		// Directory names may also carry the project_name token.
		rel = strings.ReplaceAll(rel, "project_name", name)
		target := filepath.Join(projectDir, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		if _, templated := templateExtensions[filepath.Ext(path)]; templated {
			contents, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rendered := string(contents)
			for pattern, value := range vars {
				rendered = pattern.ReplaceAllString(rendered, value)
			}
			result.Files++
			return os.WriteFile(target, []byte(rendered), info.Mode().Perm())
		}

		result.Files++
		return copyFile(path, target, info.Mode().Perm())
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return result, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

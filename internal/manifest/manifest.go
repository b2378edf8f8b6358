package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manifest is a discovered experiment spec file. The SHA256 is recorded
// on run records so a run can be traced back to the exact spec content
// that launched it.
type Manifest struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	SHA256  string `json:"sha256,omitempty"`
}

// DiscoverLocal finds experiment specs (*.yaml, *.yml) directly under dir.
func DiscoverLocal(dir string) ([]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Manifest
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		p := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		out = append(out, Manifest{
			Name:   strings.TrimSuffix(e.Name(), ext),
			Path:   p,
			SHA256: shaHex(b),
		})
	}
	return out, nil
}

// Read loads one experiment spec with its content and hash.
func Read(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	name := filepath.Base(path)
	return Manifest{
		Name:    strings.TrimSuffix(name, filepath.Ext(name)),
		Path:    path,
		Content: string(b),
		SHA256:  shaHex(b),
	}, nil
}

// FetchHTTP downloads an experiment spec over HTTP. Meant for published
// read-only specs (no secrets).
func FetchHTTP(url string, timeout time.Duration) (Manifest, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &http.Client{Timeout: timeout}
	resp, err := c.Get(url)
	if err != nil {
		return Manifest{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return Manifest{}, fmt.Errorf("http %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return Manifest{}, err
	}
	name := url
	if strings.Contains(url, "/") {
		name = url[strings.LastIndex(url, "/")+1:]
	}
	return Manifest{
		Name:    name,
		Path:    url,
		Content: string(b),
		SHA256:  shaHex(b),
	}, nil
}

func shaHex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

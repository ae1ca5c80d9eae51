package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Domain prefixes for content digests.
// The version suffix leaves room for algorithm migration.
const (
	DomainOutput   = "gistub/output/v1"
	DomainManifest = "gistub/manifest/v1"
	DomainRun      = "gistub/run/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OutputDigest identifies the emitted text of one file.
// The path is part of the digest so moving a file changes its identity.
func OutputDigest(path string, text []byte) string {
	data := make([]byte, 0, len(path)+1+len(text))
	data = append(data, path...)
	data = append(data, 0x00)
	data = append(data, text...)
	return hashWithDomain(DomainOutput, data)
}

// ManifestDigest identifies a run configuration given in canonical form.
func ManifestDigest(canonical map[string]any) (string, error) {
	data, err := MarshalCanonical(canonical)
	if err != nil {
		return "", fmt.Errorf("ManifestDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainManifest, data), nil
}

// RunDigest combines per-file digests into one value for the whole run.
// Two runs over identical IR produce the same RunDigest.
func RunDigest(files map[string]string) (string, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	entries := make([]any, len(paths))
	for i, p := range paths {
		entries[i] = map[string]any{"path": p, "digest": files[p]}
	}

	data, err := MarshalCanonical(map[string]any{"files": entries})
	if err != nil {
		return "", fmt.Errorf("RunDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, data), nil
}

// Package verify checks downloaded modpack archives against a SHA256
// checksum and/or a detached OpenPGP signature.
package verify

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// ErrNoVerification is returned when a request names nothing to verify
// against.
var ErrNoVerification = errors.New("no checksum or signature available")

// Method identifies a verification method.
type Method int

const (
	MethodSHA256 Method = iota + 1
	MethodGPG
)

func (m Method) String() string {
	switch m {
	case MethodSHA256:
		return "sha256"
	case MethodGPG:
		return "gpg"
	default:
		return "unknown"
	}
}

// Result describes one verification method applied to a file.
type Result struct {
	Method  Method
	Success bool
	Error   error
}

// Request names a file and what to verify it against. Any combination of
// fields may be set; every one that is set must pass.
type Request struct {
	Path string
	// ExpectedSHA256 is a hex digest
	ExpectedSHA256 string
	// ChecksumPath is a sha256sum-style file listing the digest of Path's basename
	ChecksumPath string
	// SignaturePath is a detached signature, armored or binary
	SignaturePath string
}

// Verifier verifies files against a public keyring.
type Verifier struct {
	keyringPath string
}

// NewVerifier creates a verifier. keyringPath may be empty, in which case
// only checksum verification is possible.
func NewVerifier(keyringPath string) *Verifier {
	return &Verifier{keyringPath: keyringPath}
}

// Verify runs every method req asks for and returns their results in
// order. It stops at the first failure.
func (v *Verifier) Verify(req Request) ([]*Result, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if req.ExpectedSHA256 == "" && req.ChecksumPath == "" && req.SignaturePath == "" {
		return nil, ErrNoVerification
	}

	var results []*Result

	if req.ExpectedSHA256 != "" || req.ChecksumPath != "" {
		expected := req.ExpectedSHA256
		if expected == "" {
			found, err := findChecksum(req.ChecksumPath, filepath.Base(req.Path))
			if err != nil {
				results = append(results, &Result{Method: MethodSHA256, Error: fmt.Errorf("find checksum: %w", err)})
				return results, fmt.Errorf("SHA256 verification failed: %w", err)
			}
			expected = found
		}

		result, err := v.verifySHA256(req.Path, expected)
		results = append(results, result)
		if err != nil {
			return results, fmt.Errorf("SHA256 verification failed: %w", err)
		}
	}

	if req.SignaturePath != "" {
		result, err := v.verifyGPG(req.Path, req.SignaturePath)
		results = append(results, result)
		if err != nil {
			return results, fmt.Errorf("GPG verification failed: %w", err)
		}
	}

	return results, nil
}

// verifyGPG verifies a file using a detached GPG signature
func (v *Verifier) verifyGPG(path, signaturePath string) (*Result, error) {
	fail := func(err error) (*Result, error) {
		return &Result{Method: MethodGPG, Success: false, Error: err}, err
	}

	if v.keyringPath == "" {
		return fail(fmt.Errorf("no keyring configured"))
	}

	keyring, err := LoadKeyring(v.keyringPath)
	if err != nil {
		return fail(fmt.Errorf("load keyring: %w", err))
	}

	file, err := os.Open(path)
	if err != nil {
		return fail(fmt.Errorf("open file: %w", err))
	}
	defer file.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return fail(fmt.Errorf("open signature: %w", err))
	}
	defer sigFile.Close()

	// Try armored first, then binary
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, file, sigFile, nil)
	if err != nil {
		if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
			return fail(fmt.Errorf("rewind file: %w", seekErr))
		}
		if _, seekErr := sigFile.Seek(0, io.SeekStart); seekErr != nil {
			return fail(fmt.Errorf("rewind signature: %w", seekErr))
		}
		_, err = openpgp.CheckDetachedSignature(keyring, file, sigFile, nil)
	}
	if err != nil {
		return fail(fmt.Errorf("verify signature: %w", err))
	}

	return &Result{Method: MethodGPG, Success: true}, nil
}

// verifySHA256 verifies a file against an expected hex digest
func (v *Verifier) verifySHA256(path, expected string) (*Result, error) {
	actual, err := FileSHA256(path)
	if err != nil {
		err = fmt.Errorf("calculate checksum: %w", err)
		return &Result{Method: MethodSHA256, Error: err}, err
	}

	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return &Result{
			Method: MethodSHA256,
			Error: fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s",
				actual, expected),
		}, fmt.Errorf("checksum mismatch")
	}

	return &Result{Method: MethodSHA256, Success: true}, nil
}

// LoadKeyring reads an armored or binary public keyring.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		if _, seekErr := keyringFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("rewind keyring: %w", seekErr)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// FileSHA256 returns the hex SHA256 digest of a file.
func FileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for a specific filename in a checksum file
// Format: "abc123def456  pack-1.0.zip"
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		// sha256sum marks binary mode with a leading '*'
		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || filepath.Base(name) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}

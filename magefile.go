//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "tlsvhost"
	buildDir   = "dist"
	cmdPath    = "./cmd/tlsvhost"
	certDir    = "certs"
)

var (
	// Default target
	Default = Build
)

// getVersion returns TAG[-N][-dirty], N being the commits since TAG.
// Without tags the short commit hash is used.
func getVersion() string {
	tag, err := sh.Output("git", "describe", "--tags", "--abbrev=0")
	if err != nil {
		hash, hashErr := sh.Output("git", "rev-parse", "--short", "HEAD")
		if hashErr != nil {
			return "0.0.0-dev"
		}
		if isDirty() {
			return hash + "-dirty"
		}
		return hash
	}

	dist, err := sh.Output("git", "rev-list", "--count", tag+"..HEAD")
	if err != nil || dist == "" {
		dist = "0"
	}

	version := tag
	if dist != "0" {
		version = fmt.Sprintf("%s-%s", tag, dist)
	}
	if isDirty() {
		version += "-dirty"
	}
	return version
}

func isDirty() bool {
	out, err := sh.Output("git", "status", "--porcelain")
	return err == nil && strings.TrimSpace(out) != ""
}

func getLDFLAGS() string {
	return fmt.Sprintf("-s -w -X 'tlsvhost/internal/cmd.Version=%s'", getVersion())
}

// Build compiles the binary
func Build() error {
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-ldflags", getLDFLAGS(), "-o", filepath.Join(buildDir, binaryName), cmdPath)
}

// Test runs the unit tests with the race detector
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Bench runs the config benchmarks
func Bench() error {
	return sh.RunV("go", "test", "-run", "^$", "-bench", ".", "./internal/config/...")
}

// DevCerts writes a development CA and certificates for the sample config
func DevCerts() error {
	mg.Deps(Build)
	bin := filepath.Join(buildDir, binaryName)
	pairs := [][]string{
		{"default", "localhost", "127.0.0.1"},
		{"example.com", "example.com"},
	}
	for _, p := range pairs {
		args := append([]string{"gen-cert", "--out", certDir, "--name", p[0]}, p[1:]...)
		if err := sh.RunV(bin, args...); err != nil {
			return err
		}
	}
	return nil
}

// Clean removes build artifacts
func Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll(buildDir)
}

// CrossAll performs cross-platform builds
func CrossAll() error {
	mg.Deps(Clean)
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return err
	}

	type target struct {
		os   string
		arch string
	}

	targets := []target{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "amd64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(targets))

	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			output := filepath.Join(buildDir, fmt.Sprintf("%s-%s-%s", binaryName, t.os, t.arch))
			if t.os == "windows" {
				output += ".exe"
			}

			fmt.Printf("Building for %s/%s...\n", t.os, t.arch)
			env := map[string]string{
				"GOOS":   t.os,
				"GOARCH": t.arch,
			}
			if err := sh.RunWithV(env, "go", "build", "-ldflags", getLDFLAGS(), "-o", output, cmdPath); err != nil {
				errs <- fmt.Errorf("failed build for %s/%s: %v", t.os, t.arch, err)
			}
		}(t)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return nil
}

// Checksum generates sha256 checksums for files in dist
func Checksum() error {
	files, err := filepath.Glob(filepath.Join(buildDir, "*"))
	if err != nil {
		return err
	}

	var checksums string
	for _, f := range files {
		if filepath.Base(f) == "checksums.txt" {
			continue
		}
		sum, err := sh.Output("sha256sum", f)
		if err != nil {
			sum, err = sh.Output("shasum", "-a", "256", f)
			if err != nil {
				continue
			}
		}
		checksums += sum + "\n"
	}

	return os.WriteFile(filepath.Join(buildDir, "checksums.txt"), []byte(checksums), 0644)
}

//go:build tools
// +build tools

// Package tools lists the development tools used by the campi module.
// They are installed with `go install` and are not linked into any binary.
package tools

// Mock generation (see internal/mocks/generate.go):
//
//   go generate ./internal/mocks/...
//   Runs go.uber.org/mock/mockgen, pinned by go.mod.
//
// Live reload while editing templates under web/ (DEV=true serves them from disk):
//
//   go install github.com/air-verse/air@v1.63.0
//   air --build.cmd "go build -o ./tmp/campi ./cmd/campi" --build.bin ./tmp/campi \
//       --build.include_ext "go,tmpl,css,js"

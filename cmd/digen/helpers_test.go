package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type pkgHarness struct {
	t   *testing.T
	dir string
}

func newPkg(t *testing.T) *pkgHarness {
	t.Helper()
	return &pkgHarness{t: t, dir: t.TempDir()}
}

func (p *pkgHarness) write(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.dir, rel)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (p *pkgHarness) path(rel string) string {
	return filepath.Join(p.dir, rel)
}

func (p *pkgHarness) read(rel string) string {
	p.t.Helper()
	b, err := os.ReadFile(filepath.Join(p.dir, rel))
	require.NoError(p.t, err)
	return string(b)
}

const shopSource = `package shop

import (
	"time"

	"github.com/sghaida/reflectdi/di"
)

type Clock interface {
	Now() time.Time
}

type Base interface {
	Clock() Clock
}

type Shop interface {
	Base
	Opened() (time.Time, error)
	Close() error
	Session(m SessionModule) Session
	SessionBuilder() SessionBuilder
}

type SessionModule struct{}

type Session interface {
	Clock() Clock
}

type SessionBuilder interface {
	Module(m SessionModule) SessionBuilder
	Build() Session
}

type ShopBuilder interface {
	Clock(c Clock) ShopBuilder
	Build() Shop
}

func ShopDescriptor() *di.ComponentDescriptor { return nil }
`

const shopManifest = `components:
  - interface: Shop
    descriptor: ShopDescriptor
    builder: ShopBuilder
    create: true
    subcomponents:
      - interface: Session
        builder: SessionBuilder
`

// writeShop lays out a package with the shop sources and manifest and
// returns the manifest path.
func writeShop(p *pkgHarness) string {
	p.write("shop.go", shopSource)
	return p.write("digen.yaml", shopManifest)
}

func panicMessage(fn func()) (msg string) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case string:
			msg = r
		case error:
			msg = r.Error()
		default:
			msg = fmt.Sprint(r)
		}
	}()
	fn()
	return ""
}

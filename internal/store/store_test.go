package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/pac"
)

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	s := openTest(t, dbPath(t))

	reg, err := s.State(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, reg.Proxies)
	assert.Empty(t, reg.Proxies)
}

func TestLoad_CorruptFileStartsEmpty(t *testing.T) {
	path := dbPath(t)
	writeFile(t, path, "{not json")
	s := openTest(t, path)

	proxies, err := s.ListProxies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, proxies)

	// The corrupt file is replaced by the first successful mutation.
	mustAdd(t, s, p1())
	assert.Contains(t, readFile(t, path), `"id": "p1"`)
}

func TestLoad_NormalizesLegacyDomains(t *testing.T) {
	path := dbPath(t)
	writeFile(t, path, `{
  "proxies": [
    {"id": "a", "proto": "SOCKS5", "host": "h", "port": 1, "domains": [
      "bare-string.com",
      null,
      {"tag": "no name"},
      {"name": 42},
      {"name": "   "},
      {"name": " keep.com ", "tag": 7},
      {"name": "tagged.com", "tag": "t"},
      {"name": "keep.com", "tag": "dup"}
    ]},
    {"id": "b", "proto": "PROXY", "host": "h2", "port": 2, "domains": null},
    {"id": "c", "proto": "PROXY", "host": "h3", "port": 3},
    null,
    {"id": "a", "proto": "PROXY", "host": "dup", "port": 4}
  ]
}`)
	s := openTest(t, path)

	reg, err := s.State(context.Background())
	require.NoError(t, err)
	require.Len(t, reg.Proxies, 3)

	assert.Equal(t, []model.Domain{{Name: "keep.com"}, {Name: "tagged.com", Tag: "t"}}, reg.Proxies[0].Domains)
	assert.NotNil(t, reg.Proxies[1].Domains)
	assert.Empty(t, reg.Proxies[1].Domains)
	assert.NotNil(t, reg.Proxies[2].Domains)
	assert.Equal(t, "h", reg.Proxies[0].Host)
}

func TestLoad_MistypedFieldsKeepProxy(t *testing.T) {
	path := dbPath(t)
	writeFile(t, path, `{
  "proxies": [
    {"id": "p1", "proto": "SOCKS5", "host": "h", "port": "1080", "domains": "bad"},
    {"id": "p2", "proto": 5, "host": ["x"], "port": true, "domains": [{"name": "ok.com"}]},
    {"id": 7, "proto": "PROXY", "host": "h", "port": 1},
    {"id": "  ", "proto": "PROXY", "host": "h", "port": 1},
    {"proto": "PROXY", "host": "h", "port": 1},
    "p3"
  ]
}`)
	s := openTest(t, path)

	reg, err := s.State(context.Background())
	require.NoError(t, err)
	require.Len(t, reg.Proxies, 2)

	assert.Equal(t, model.Proxy{ID: "p1", Proto: model.ProtoSOCKS5, Host: "h", Port: 1080, Domains: []model.Domain{}}, reg.Proxies[0])
	assert.Equal(t, model.Proxy{ID: "p2", Domains: []model.Domain{{Name: "ok.com"}}}, reg.Proxies[1])

	// A kept proxy is fully usable.
	_, err = s.AddDomain(context.Background(), "p1", model.Domain{Name: "new.com"})
	require.NoError(t, err)
}

func TestLoad_CanonicalizesDomainNames(t *testing.T) {
	ctx := context.Background()
	path := dbPath(t)
	writeFile(t, path, `{"proxies":[{"id":"a","proto":"SOCKS","host":"h","port":1,"domains":[
  {"name":"Example.com","tag":"first"},
  {"name":"example.COM","tag":"second"},
  {"name":"Bücher.example"},
  {"name":"Has Space.com"}
]}]}`)
	s := openTest(t, path)

	reg, err := s.State(ctx)
	require.NoError(t, err)
	require.Len(t, reg.Proxies, 1)
	assert.Equal(t, []model.Domain{
		{Name: "example.com", Tag: "first"},
		{Name: "xn--bcher-kva.example"},
		{Name: "has space.com"},
	}, reg.Proxies[0].Domains)

	got, err := s.AddDomain(ctx, "a", model.Domain{Name: "example.com", Tag: "other"})
	require.NoError(t, err)
	assert.Equal(t, model.Domain{Name: "example.com", Tag: "first"}, got)

	proxy, err := s.GetProxy(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, proxy.Domains, 3)

	removed, err := s.RemoveDomain(ctx, "a", "Has Space.com")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestLoad_Idempotent(t *testing.T) {
	path := dbPath(t)
	writeFile(t, path, `{"proxies":[{"id":"a","proto":"SOCKS","host":"h","port":1,"domains":[]}]}`)
	s := openTest(t, path)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx))
	// Changing the file after the first load has no effect.
	writeFile(t, path, `{"proxies":[]}`)
	require.NoError(t, s.Load(ctx))

	proxies, err := s.ListProxies(ctx)
	require.NoError(t, err)
	assert.Len(t, proxies, 1)
}

func TestLoad_ConcurrentCallsLoadOnce(t *testing.T) {
	path := dbPath(t)
	writeFile(t, path, `{"proxies":[{"id":"a","proto":"SOCKS","host":"h","port":1,"domains":[]}]}`)
	s := openTest(t, path)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Load(context.Background()))
		}()
	}
	wg.Wait()

	proxies, err := s.ListProxies(context.Background())
	require.NoError(t, err)
	assert.Len(t, proxies, 1)
}

func TestRoundTrip_ReloadEqualsState(t *testing.T) {
	path := dbPath(t)
	ctx := context.Background()
	s := openTest(t, path)

	mustAdd(t, s, p1())
	mustAdd(t, s, model.Proxy{ID: "p2", Proto: model.ProtoPROXY, Host: "proxy.local", Port: 3128,
		Domains: []model.Domain{{Name: "b.com"}, {Name: "a.com", Tag: "first"}}})
	_, err := s.AddDomain(ctx, "p1", model.Domain{Name: "example.com", Tag: "work"})
	require.NoError(t, err)
	_, err = s.AddDomain(ctx, "p1", model.Domain{Name: "zeta.com"})
	require.NoError(t, err)

	before, err := s.State(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := openTest(t, path)
	after, err := reopened.State(ctx)
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, pac.Generate(before), pac.Generate(after))
}

func TestState_ReturnsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, model.Proxy{ID: "p1", Proto: model.ProtoSOCKS, Host: "h", Port: 1, Domains: []model.Domain{{Name: "a.com"}}})

	reg, err := s.State(ctx)
	require.NoError(t, err)
	reg.Proxies[0].Domains[0].Name = "mutated.com"
	reg.Proxies[0].Host = "mutated"

	got, err := s.GetProxy(ctx, "p1")
	require.NoError(t, err)
	got.Domains = append(got.Domains, model.Domain{Name: "x.com"})

	again, err := s.GetProxy(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "h", again.Host)
	assert.Equal(t, []model.Domain{{Name: "a.com"}}, again.Domains)
}

func TestGetProxy_NotFound(t *testing.T) {
	s := openTest(t, dbPath(t))
	_, err := s.GetProxy(context.Background(), "nope")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "NOT_FOUND", nf.AppError.Code)
}

func TestAddProxy_DuplicateIDConflicts(t *testing.T) {
	path := dbPath(t)
	ctx := context.Background()
	s := openTest(t, path)
	mustAdd(t, s, p1())

	before, err := s.State(ctx)
	require.NoError(t, err)
	fileBefore := readFile(t, path)

	dup := p1()
	dup.Host = "other"
	_, err = s.AddProxy(ctx, dup)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)

	after, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, fileBefore, readFile(t, path))
}

func TestAddProxy_ValidationNeverWrites(t *testing.T) {
	path := dbPath(t)
	s := openTest(t, path)

	tests := []model.Proxy{
		{ID: "x", Proto: "HTTPS", Host: "h", Port: 1},
		{ID: "x", Proto: model.ProtoPROXY, Host: " ", Port: 1},
		{ID: "x", Proto: model.ProtoPROXY, Host: "h", Port: -1},
		{ID: "x", Proto: model.ProtoPROXY, Host: "h", Port: 1, Domains: []model.Domain{{Name: ""}}},
		{ID: "", Proto: model.ProtoPROXY, Host: "h", Port: 1},
	}
	for _, p := range tests {
		_, err := s.AddProxy(context.Background(), p)
		var ve *model.ValidationError
		require.ErrorAs(t, err, &ve, "proxy %+v", p)
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "registry file must not be written")
}

func TestAddProxy_NormalizesInput(t *testing.T) {
	s := openTest(t, dbPath(t))
	got := mustAdd(t, s, model.Proxy{ID: "p", Proto: model.ProtoPROXY, Host: " proxy.local ", Port: 8080,
		Domains: []model.Domain{{Name: " A.com ", Tag: "x"}, {Name: "a.com"}}})

	assert.Equal(t, "proxy.local", got.Host)
	assert.Equal(t, []model.Domain{{Name: "a.com", Tag: "x"}}, got.Domains)
}

func TestUpdateProxy_PartialPatch(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, model.Proxy{ID: "p1", Proto: model.ProtoSOCKS5, Host: "10.0.0.1", Port: 1080,
		Domains: []model.Domain{{Name: "a.com"}}})

	port := 1081
	got, err := s.UpdateProxy(ctx, "p1", model.ProxyPatch{Port: &port})
	require.NoError(t, err)
	assert.Equal(t, 1081, got.Port)
	assert.Equal(t, "10.0.0.1", got.Host)
	assert.Equal(t, []model.Domain{{Name: "a.com"}}, got.Domains)

	proto := model.ProtoPROXY
	domains := []model.Domain{{Name: "b.com", Tag: "t"}}
	got, err = s.UpdateProxy(ctx, "p1", model.ProxyPatch{Proto: &proto, Domains: &domains})
	require.NoError(t, err)
	assert.Equal(t, model.ProtoPROXY, got.Proto)
	assert.Equal(t, domains, got.Domains)

	stored, err := s.GetProxy(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestUpdateProxy_Errors(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, p1())

	port := 0
	_, err := s.UpdateProxy(ctx, "missing", model.ProxyPatch{})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = s.UpdateProxy(ctx, "p1", model.ProxyPatch{Port: &port})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	stored, err := s.GetProxy(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1080, stored.Port)
}

func TestDeleteProxy(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, p1())

	ok, err := s.DeleteProxy(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.DeleteProxy(ctx, "p1")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	proxies, err := s.ListProxies(ctx)
	require.NoError(t, err)
	assert.Empty(t, proxies)
}

func TestDomainLifecycle_AddThenRemoveRestoresState(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, model.Proxy{ID: "p1", Proto: model.ProtoSOCKS5, Host: "10.0.0.1", Port: 1080,
		Domains: []model.Domain{{Name: "a.com"}, {Name: "b.com", Tag: "b"}}})

	before, err := s.State(ctx)
	require.NoError(t, err)

	added, err := s.AddDomain(ctx, "p1", model.Domain{Name: "New.Example", Tag: "tmp"})
	require.NoError(t, err)
	assert.Equal(t, model.Domain{Name: "new.example", Tag: "tmp"}, added)

	removed, err := s.RemoveDomain(ctx, "p1", "new.example")
	require.NoError(t, err)
	assert.True(t, removed)

	after, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAddDomain_ExistingNameIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, model.Proxy{ID: "p1", Proto: model.ProtoSOCKS5, Host: "h", Port: 1,
		Domains: []model.Domain{{Name: "a.com", Tag: "orig"}}})

	got, err := s.AddDomain(ctx, "p1", model.Domain{Name: "a.com", Tag: "new"})
	require.NoError(t, err)
	assert.Equal(t, model.Domain{Name: "a.com", Tag: "orig"}, got)

	p, err := s.GetProxy(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, p.Domains, 1)
}

func TestAddDomain_Errors(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, p1())

	_, err := s.AddDomain(ctx, "missing", model.Domain{Name: "a.com"})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = s.AddDomain(ctx, "p1", model.Domain{Name: "  "})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestRemoveDomain_AbsentNameSucceeds(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, p1())

	removed, err := s.RemoveDomain(ctx, "p1", "never-added.com")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.RemoveDomain(ctx, "missing", "a.com")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRemoveDomain_MatchesLegacyName(t *testing.T) {
	path := dbPath(t)
	writeFile(t, path, `{"proxies":[{"id":"a","proto":"SOCKS","host":"h","port":1,"domains":[{"name":"Legacy.COM"}]}]}`)
	s := openTest(t, path)

	removed, err := s.RemoveDomain(context.Background(), "a", "Legacy.COM")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestUpdateDomainTag(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))
	mustAdd(t, s, model.Proxy{ID: "p1", Proto: model.ProtoSOCKS5, Host: "h", Port: 1,
		Domains: []model.Domain{{Name: "a.com", Tag: "old"}, {Name: "b.com"}}})

	got, err := s.UpdateDomainTag(ctx, "p1", "a.com", "new")
	require.NoError(t, err)
	assert.Equal(t, model.Domain{Name: "a.com", Tag: "new"}, got)

	got, err = s.UpdateDomainTag(ctx, "p1", "a.com", "")
	require.NoError(t, err)
	assert.Equal(t, model.Domain{Name: "a.com"}, got)

	_, err = s.UpdateDomainTag(ctx, "p1", "c.com", "x")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "name", nf.AppError.Field)

	_, err = s.UpdateDomainTag(ctx, "nope", "a.com", "x")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "id", nf.AppError.Field)
}

func TestScenario_AddProxyDomainAndCompile(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, dbPath(t))

	mustAdd(t, s, p1())
	_, err := s.AddDomain(ctx, "p1", model.Domain{Name: "example.com", Tag: "work"})
	require.NoError(t, err)

	reg, err := s.State(ctx)
	require.NoError(t, err)
	script := pac.Generate(reg)

	assert.Contains(t, script, "[\"SOCKS5 10.0.0.1:1080\", [\n      \"example.com\" /* work */\n    ]]")
	assert.Equal(t, "SOCKS5 10.0.0.1:1080", pac.FindProxy(reg, "example.com"))
	assert.Equal(t, pac.Direct, pac.FindProxy(reg, "golang.org"))
}

func TestClose_RejectsMutations(t *testing.T) {
	s := Open(dbPath(t))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.AddProxy(context.Background(), p1())
	assert.True(t, errors.Is(err, ErrClosed), "err = %v", err)

	// Reads still work.
	_, err = s.ListProxies(context.Background())
	assert.NoError(t, err)
}

func TestMutation_CanceledContextNotApplied(t *testing.T) {
	s := openTest(t, dbPath(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddProxy(ctx, p1())
	require.ErrorIs(t, err, context.Canceled)

	proxies, err := s.ListProxies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, proxies)
}

package kvpool_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AndrewDonelson/kvpool"
	"github.com/AndrewDonelson/kvpool/internal/clock"
	"github.com/AndrewDonelson/kvpool/pool"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type Profile struct {
	Name  string            `json:"name"`
	Age   int               `json:"age"`
	Tags  []string          `json:"tags"`
	Attrs map[string]string `json:"attrs"`
}

type Invoice struct {
	Number string
	Total  float64
}

// env is one client over one backend plus a way to move its time.
type env struct {
	name        string
	c           *kvpool.Client
	fastForward func(time.Duration)
}

func newRedisEnv(t *testing.T, cfg kvpool.Config) (env, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p := pool.NewRedis(pool.RedisOptions{Addr: mr.Addr(), PoolSize: 4})
	c, err := kvpool.New(p, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return env{name: "redis", c: c, fastForward: mr.FastForward}, mr
}

func newMemoryEnv(t *testing.T, cfg kvpool.Config) env {
	t.Helper()
	clk := clock.NewMock(time.Time{})
	p := pool.NewMemory(pool.MemoryOptions{Capacity: 4, Clock: clk})
	c, err := kvpool.New(p, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return env{name: "memory", c: c, fastForward: clk.Advance}
}

func envs(t *testing.T, cfg kvpool.Config) []env {
	r, _ := newRedisEnv(t, cfg)
	return []env{r, newMemoryEnv(t, cfg)}
}

// ── Text ─────────────────────────────────────────────────────────────────────

func TestClient_PutGet(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			for _, v := range []string{"1", "", "héllo wörld", "日本語", "line\nbreak"} {
				require.NoError(t, e.c.Put(ctx, "k", v))
				got, err := e.c.Get(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, v, got)
			}
		})
	}
}

func TestClient_DefaultDatabaseIsolation(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.Put(ctx, "a", "1"))

			got, err := e.c.Get(ctx, "a", kvpool.DB(15))
			require.NoError(t, err)
			assert.Equal(t, "1", got)

			_, err = e.c.Get(ctx, "a", kvpool.DB(3))
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
		})
	}
}

func TestClient_DefaultDatabaseIsolation_BestEffort(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{Policy: kvpool.PolicyBestEffort}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.Put(ctx, "a", "1"))
			got, err := e.c.Get(ctx, "a", kvpool.DB(3))
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestClient_PutWithTTL(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.Put(ctx, "session", "abc", kvpool.TTL(2*time.Second)))

			e.fastForward(time.Second)
			got, err := e.c.Get(ctx, "session")
			require.NoError(t, err)
			assert.Equal(t, "abc", got)

			e.fastForward(2 * time.Second)
			_, err = e.c.Get(ctx, "session")
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
		})
	}
}

func TestClient_Delete(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.Put(ctx, "k", "v"))
			require.NoError(t, e.c.Delete(ctx, "k"))
			require.NoError(t, e.c.Delete(ctx, "k"), "deleting an absent key is fine")

			_, err := e.c.Get(ctx, "k")
			assert.ErrorIs(t, err, kvpool.ErrNotFound)

			p, err := kvpool.GetJSONTyped[Profile](ctx, e.c, "k")
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
			assert.Nil(t, p)
		})
	}
}

// ── Hash ─────────────────────────────────────────────────────────────────────

func TestClient_MapRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := map[string]string{"name": "Ada", "lang": "en", "empty": "", "ünï": "cödé"}
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.PutMap(ctx, "user:1", m))

			got, err := e.c.GetMap(ctx, "user:1")
			require.NoError(t, err)
			assert.Equal(t, m, got)

			for f, v := range m {
				fv, err := e.c.GetField(ctx, "user:1", f)
				require.NoError(t, err)
				assert.Equal(t, v, fv)
			}

			_, err = e.c.GetField(ctx, "user:1", "missing")
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
		})
	}
}

func TestClient_GetMapAbsentIsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			got, err := e.c.GetMap(ctx, "nope")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestClient_DelField(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.PutMap(ctx, "h", map[string]string{"f1": "1", "f2": "2", "f3": "3"}))
			require.NoError(t, e.c.DelField(ctx, "h", []string{"f1", "f2"}))

			got, err := e.c.GetMap(ctx, "h")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"f3": "3"}, got)
		})
	}
}

// ── JSON ─────────────────────────────────────────────────────────────────────

func TestClient_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	want := Profile{Name: "Ada", Age: 36, Tags: []string{"math", "engines"}, Attrs: map[string]string{"born": "1815"}}
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.PutJSON(ctx, "p", want, kvpool.DB(2)))

			var got Profile
			require.NoError(t, e.c.GetJSON(ctx, "p", &got, kvpool.DB(2)))
			assert.Equal(t, want, got)

			typed, err := kvpool.GetJSONTyped[Profile](ctx, e.c, "p", kvpool.DB(2))
			require.NoError(t, err)
			assert.Equal(t, want, *typed)

			// The JSON text is readable as plain text too.
			raw, err := e.c.Get(ctx, "p", kvpool.DB(2))
			require.NoError(t, err)
			assert.Contains(t, raw, `"name":"Ada"`)
		})
	}
}

func TestClient_JSONBlankIsNotFound(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.Put(ctx, "blank", "  \n"))
			got := Profile{Name: "untouched"}
			err := e.c.GetJSON(ctx, "blank", &got)
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
			assert.Equal(t, "untouched", got.Name)
		})
	}
}

func TestClient_JSONDecodeErrorSurfacesUnderBothPolicies(t *testing.T) {
	ctx := context.Background()
	for _, policy := range []kvpool.FailurePolicy{kvpool.PolicyStrict, kvpool.PolicyBestEffort} {
		t.Run(policy.String(), func(t *testing.T) {
			e := newMemoryEnv(t, kvpool.Config{Policy: policy})
			require.NoError(t, e.c.Put(ctx, "bad", "{not json"))

			got := Profile{Name: "untouched"}
			err := e.c.GetJSON(ctx, "bad", &got)
			assert.ErrorIs(t, err, kvpool.ErrDecode)
			assert.Equal(t, "untouched", got.Name)
		})
	}
}

// ── Binary objects ───────────────────────────────────────────────────────────

func TestClient_ObjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	want := Invoice{Number: "INV-7", Total: 99.5}
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.PutObject(ctx, "inv", &want, kvpool.TTL(time.Minute)))

			var got Invoice
			require.NoError(t, e.c.GetObject(ctx, "inv", &got))
			assert.Equal(t, want, got)

			typed, err := kvpool.GetObjectTyped[Invoice](ctx, e.c, "inv")
			require.NoError(t, err)
			assert.Equal(t, want, *typed)
		})
	}
}

func TestClient_ObjectTypeMismatchIsAbsent(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.PutObject(ctx, "inv", Invoice{Number: "1"}))

			got := Profile{Name: "untouched"}
			err := e.c.GetObject(ctx, "inv", &got)
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
			assert.Equal(t, "untouched", got.Name)

			typed, err := kvpool.GetObjectTyped[Profile](ctx, e.c, "inv")
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
			assert.Nil(t, typed)
		})
	}
}

func TestClient_ObjectTypeMismatchBestEffort(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEnv(t, kvpool.Config{Policy: kvpool.PolicyBestEffort})
	require.NoError(t, e.c.PutObject(ctx, "inv", Invoice{Number: "1"}))

	typed, err := kvpool.GetObjectTyped[Profile](ctx, e.c, "inv")
	require.NoError(t, err)
	assert.Nil(t, typed)
}

func TestClient_ObjectMismatchPolicyError(t *testing.T) {
	ctx := context.Background()
	for _, policy := range []kvpool.FailurePolicy{kvpool.PolicyStrict, kvpool.PolicyBestEffort} {
		t.Run(policy.String(), func(t *testing.T) {
			e := newMemoryEnv(t, kvpool.Config{Policy: policy, Mismatch: kvpool.MismatchError})
			require.NoError(t, e.c.PutObject(ctx, "inv", Invoice{Number: "1"}))
			require.NoError(t, e.c.Put(ctx, "text", "plain"))

			var p Profile
			assert.ErrorIs(t, e.c.GetObject(ctx, "inv", &p), kvpool.ErrTypeMismatch)

			var inv Invoice
			assert.ErrorIs(t, e.c.GetObject(ctx, "text", &inv), kvpool.ErrDecode)
		})
	}
}

// ── Files ────────────────────────────────────────────────────────────────────

func TestClient_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	content := []byte{0x00, 0xff, 'h', 'i', 0x10, 0x80}
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "src.bin")
			require.NoError(t, os.WriteFile(src, content, 0o600))

			require.NoError(t, e.c.PutFilePath(ctx, "blob", src))

			dst := filepath.Join(dir, "nested", "deeper", "dst.bin")
			path, err := e.c.GetFile(ctx, "blob", dst)
			require.NoError(t, err)
			assert.Equal(t, dst, path)

			got, err := os.ReadFile(dst)
			require.NoError(t, err)
			assert.Equal(t, content, got)
		})
	}
}

func TestClient_PutFileReadsFromStart(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEnv(t, kvpool.Config{})
	dir := t.TempDir()

	f, err := os.Create(filepath.Join(dir, "f.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	_, err = f.WriteString("whole file")
	require.NoError(t, err)

	require.NoError(t, e.c.PutFile(ctx, "f", f, kvpool.TTL(time.Hour)))

	got, err := e.c.Get(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "whole file", got)
}

func TestClient_GetFileAbsentWritesNothing(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEnv(t, kvpool.Config{})
	dst := filepath.Join(t.TempDir(), "out.bin")

	path, err := e.c.GetFile(ctx, "missing", dst)
	assert.ErrorIs(t, err, kvpool.ErrNotFound)
	assert.Empty(t, path)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestClient_PutFilePathMissingFile(t *testing.T) {
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "nope")

	strict := newMemoryEnv(t, kvpool.Config{})
	assert.ErrorIs(t, strict.c.PutFilePath(ctx, "k", missing), kvpool.ErrFile)

	lenient := newMemoryEnv(t, kvpool.Config{Policy: kvpool.PolicyBestEffort})
	assert.NoError(t, lenient.c.PutFilePath(ctx, "k", missing))
	assert.Equal(t, int64(1), lenient.c.Stats().Failures)
	assert.Equal(t, int64(0), lenient.c.Stats().Acquired, "the file is read before a lease is taken")
}

// ── Expire / FlushDB ─────────────────────────────────────────────────────────

func TestClient_Expire(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			ok, err := e.c.Expire(ctx, "absent", time.Second)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, e.c.Put(ctx, "k", "v"))
			ok, err = e.c.Expire(ctx, "k", 5*time.Second)
			require.NoError(t, err)
			assert.True(t, ok)

			e.fastForward(6 * time.Second)
			_, err = e.c.Get(ctx, "k")
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
		})
	}
}

func TestClient_FlushDB(t *testing.T) {
	ctx := context.Background()
	for _, e := range envs(t, kvpool.Config{}) {
		t.Run(e.name, func(t *testing.T) {
			require.NoError(t, e.c.Put(ctx, "a", "1", kvpool.DB(4)))
			require.NoError(t, e.c.Put(ctx, "b", "2", kvpool.DB(4)))
			require.NoError(t, e.c.Put(ctx, "a", "kept", kvpool.DB(5)))

			require.NoError(t, e.c.FlushDB(ctx, 4))

			_, err := e.c.Get(ctx, "a", kvpool.DB(4))
			assert.ErrorIs(t, err, kvpool.ErrNotFound)
			got, err := e.c.Get(ctx, "a", kvpool.DB(5))
			require.NoError(t, err)
			assert.Equal(t, "kept", got)
		})
	}
}

// ── Configuration ────────────────────────────────────────────────────────────

func TestNew_Validation(t *testing.T) {
	_, err := kvpool.New(nil, kvpool.Config{})
	assert.ErrorIs(t, err, kvpool.ErrInvalidConfig)

	mem := func() pool.Pool { return pool.NewMemory(pool.MemoryOptions{}) }

	_, err = kvpool.New(mem(), kvpool.Config{Databases: -1})
	assert.ErrorIs(t, err, kvpool.ErrInvalidConfig)

	_, err = kvpool.New(mem(), kvpool.Config{Databases: 4, DefaultDB: kvpool.IntPtr(4)})
	assert.ErrorIs(t, err, kvpool.ErrInvalidConfig)

	_, err = kvpool.New(mem(), kvpool.Config{Charset: "no-such-charset"})
	assert.ErrorIs(t, err, kvpool.ErrInvalidConfig)

	_, err = kvpool.New(mem(), kvpool.Config{Policy: kvpool.FailurePolicy(9)})
	assert.ErrorIs(t, err, kvpool.ErrInvalidConfig)
}

func TestNew_DefaultDBClampedToDatabases(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEnv(t, kvpool.Config{Databases: 4})
	assert.Equal(t, 4, e.c.Databases())

	require.NoError(t, e.c.Put(ctx, "k", "v"))
	got, err := e.c.Get(ctx, "k", kvpool.DB(3))
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestClient_Charset(t *testing.T) {
	ctx := context.Background()
	e, mr := newRedisEnv(t, kvpool.Config{Charset: "ISO-8859-1"})

	require.NoError(t, e.c.Put(ctx, "café", "crème"))
	got, err := e.c.Get(ctx, "café")
	require.NoError(t, err)
	assert.Equal(t, "crème", got)

	stored, err := mr.DB(15).Get("caf\xe9")
	require.NoError(t, err)
	assert.Equal(t, "cr\xe8me", stored)
}

func TestClient_Encryption(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{7}, 32)
	for _, ctor := range []struct {
		name string
		fn   func([]byte) (kvpool.Encryptor, error)
	}{
		{"aes-gcm", kvpool.NewAES256GCM},
		{"xchacha20", kvpool.NewXChaCha20Poly1305},
	} {
		t.Run(ctor.name, func(t *testing.T) {
			enc, err := ctor.fn(key)
			require.NoError(t, err)
			e, mr := newRedisEnv(t, kvpool.Config{Encryptor: enc})

			require.NoError(t, e.c.Put(ctx, "secret", "top secret value"))
			got, err := e.c.Get(ctx, "secret")
			require.NoError(t, err)
			assert.Equal(t, "top secret value", got)

			stored, err := mr.DB(15).Get("secret")
			require.NoError(t, err)
			assert.NotContains(t, stored, "top secret")

			require.NoError(t, e.c.PutMap(ctx, "h", map[string]string{"pin": "1234"}))
			fv, err := e.c.GetField(ctx, "h", "pin")
			require.NoError(t, err)
			assert.Equal(t, "1234", fv)
			assert.NotEqual(t, "1234", mr.DB(15).HGet("h", "pin"))
		})
	}
}

func TestClient_EncryptionWrongKeyIsDecodeError(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	encA, err := kvpool.NewAES256GCM(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	encB, err := kvpool.NewAES256GCM(bytes.Repeat([]byte{2}, 32))
	require.NoError(t, err)

	a, err := kvpool.New(pool.NewRedis(pool.RedisOptions{Addr: mr.Addr()}), kvpool.Config{Encryptor: encA})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	b, err := kvpool.New(pool.NewRedis(pool.RedisOptions{Addr: mr.Addr()}), kvpool.Config{Encryptor: encB})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, a.Put(ctx, "k", "v"))
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, kvpool.ErrDecode)
}

// ── Lifecycle / stats / metrics ──────────────────────────────────────────────

func TestClient_CloseRejectsOperations(t *testing.T) {
	ctx := context.Background()
	c, err := kvpool.New(pool.NewMemory(pool.MemoryOptions{}), kvpool.Config{Policy: kvpool.PolicyBestEffort})
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Put(ctx, "k", "v"), kvpool.ErrClosed)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, kvpool.ErrClosed)
	assert.ErrorIs(t, c.FlushDB(ctx, 0), kvpool.ErrClosed)
}

func TestClient_StatsBalanceLeases(t *testing.T) {
	ctx := context.Background()
	e := newMemoryEnv(t, kvpool.Config{})

	require.NoError(t, e.c.Put(ctx, "k", "v"))
	_, _ = e.c.Get(ctx, "k")
	_, _ = e.c.Get(ctx, "missing")
	_, _ = e.c.GetMap(ctx, "missing")

	s := e.c.Stats()
	assert.Equal(t, int64(4), s.Ops)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(0), s.Failures)
	assert.Equal(t, int64(4), s.Acquired)
	assert.Equal(t, s.Acquired, s.Released)
}

func TestClient_VictoriaMetrics(t *testing.T) {
	ctx := context.Background()
	vm := kvpool.NewVictoriaMetrics("kvtest")
	e := newMemoryEnv(t, kvpool.Config{Metrics: vm})

	require.NoError(t, e.c.Put(ctx, "k", "v", kvpool.DB(1)))
	_, _ = e.c.Get(ctx, "missing", kvpool.DB(1))

	var buf bytes.Buffer
	vm.WritePrometheus(&buf)
	out := buf.String()
	assert.Contains(t, out, `kvtest_ops_total{op="put",db="1"} 1`)
	assert.Contains(t, out, `kvtest_misses_total{op="get"} 1`)
	assert.Contains(t, out, `kvtest_leases_acquired_total 2`)
	assert.Equal(t, uint64(0), vm.InUse())
}

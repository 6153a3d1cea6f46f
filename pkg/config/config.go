package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type cached struct {
	once  sync.Once
	value any
	err   error
}

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> *cached
)

// Load fills v from the environment. The default .env file is read on first
// use if present. Each type T is parsed once; later calls copy the cached
// result, including a cached error.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		// a missing .env file is not an error
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()
	entry, _ := cache.LoadOrStore(key, &cached{})
	c := entry.(*cached)
	c.once.Do(func() {
		var parsed T
		if err := env.Parse(&parsed); err != nil {
			c.err = errors.Join(ErrParsingConfig, err)
			return
		}
		c.value = parsed
	})
	if c.err != nil {
		return c.err
	}
	*v = c.value.(T)
	return nil
}

// MustLoad is Load that panics on error.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// LoadFile fills v from the given env files merged under the process
// environment. It does not touch the process environment or the Load cache.
func LoadFile[T any](v *T, files ...string) error {
	if v == nil {
		return ErrNilPointer
	}

	vars := make(map[string]string)
	if len(files) > 0 {
		fileVars, err := godotenv.Read(files...)
		if err != nil {
			return errors.Join(ErrEnvFile, err)
		}
		vars = fileVars
	}
	for _, kv := range os.Environ() {
		if k, val, ok := strings.Cut(kv, "="); ok {
			vars[k] = val
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Environment: vars}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

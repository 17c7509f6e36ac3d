// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
)

// Registry compiles and caches one codec per Go type. Lookups of compiled
// codecs are lock-free; first-time compilation is serialised so that every
// caller observes the same *Codec for a type. A Registry is safe for
// concurrent use and is typically created once at process start.
type Registry struct {
	cfg       Config
	logger    *slog.Logger
	contracts *ContractCollection
	checker   *CompatibilityChecker

	codecs sync.Map // reflect.Type -> *Codec

	mu    sync.Mutex                 // guards compilation state below
	nodes map[reflect.Type]*codecNode // compiled nodes, shared across codecs
	order []*Codec                    // published codecs in compile order
}

// NewRegistry returns a Registry with DefaultConfig.
func NewRegistry() *Registry {
	return NewRegistryWithConfig(DefaultConfig())
}

// NewRegistryWithConfig returns a Registry configured by cfg.
func NewRegistryWithConfig(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	contracts := cfg.Contracts
	if contracts == nil {
		contracts = NewContractCollection()
	}
	return &Registry{
		cfg:       cfg,
		logger:    logger,
		contracts: contracts,
		checker:   NewCompatibilityChecker(cfg.Widenings),
		nodes:     make(map[reflect.Type]*codecNode),
	}
}

// SetCodecHook registers a hook that is called around each compile, encode
// and decode. It must be called before the registry is shared.
func (r *Registry) SetCodecHook(hook CodecHook) {
	r.cfg.Hook = hook
}

// Contracts returns the registry's contract collection.
func (r *Registry) Contracts() *ContractCollection {
	return r.contracts
}

// Get returns the codec for t, compiling it on first use.
func (r *Registry) Get(t reflect.Type) (*Codec, error) {
	if c, ok := r.codecs.Load(t); ok {
		return c.(*Codec), nil
	}
	return r.compileCodec(context.Background(), t)
}

// ReadContract returns the read contract for t.
func (r *Registry) ReadContract(t reflect.Type) (ReadContract, error) {
	return r.contracts.ReadContract(t)
}

// WriteContract returns the write contract for t.
func (r *Registry) WriteContract(t reflect.Type) (WriteContract, error) {
	return r.contracts.WriteContract(t)
}

// CanRead reports whether values written as type writer can be decoded as
// type reader, using the registry's widening table when strict is false.
func (r *Registry) CanRead(writer, reader reflect.Type, strict bool) (bool, error) {
	w, err := r.contracts.WriteContract(writer)
	if err != nil {
		return false, err
	}
	rc, err := r.contracts.ReadContract(reader)
	if err != nil {
		return false, err
	}
	return r.checker.CanRead(w, rc, strict), nil
}

// Len returns the number of compiled codecs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// published returns the codecs in compile order.
func (r *Registry) published() []*Codec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Codec(nil), r.order...)
}

func (r *Registry) compileCodec(ctx context.Context, t reflect.Type) (_ *Codec, err error) {
	kind, _ := classify(t)
	info := CodecInfo{Operation: CodecOpCompile, Type: t.String(), Variant: kind.String()}
	stats := &CodecStatistics{}
	// Hooks run outside r.mu so that a hook may call back into the registry.
	ctx, token, hookActive := r.hookStart(ctx, info)
	if hookActive {
		defer func() { r.hookEnd(ctx, token, info, stats, err) }()
	}
	return r.compileLocked(t, kind, stats)
}

// compileLocked compiles and publishes the codec for t under r.mu. When
// another caller published it first, that codec is returned and
// stats.Types stays zero.
func (r *Registry) compileLocked(t reflect.Type, kind shape, stats *CodecStatistics) (*Codec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.codecs.Load(t); ok {
		return c.(*Codec), nil
	}

	read, err := r.contracts.ReadContract(t)
	if err != nil {
		return nil, err
	}
	write, err := r.contracts.WriteContract(t)
	if err != nil {
		return nil, err
	}

	before := len(r.nodes)
	root, err := r.compile(t)
	if err != nil {
		return nil, err
	}
	stats.Types = int64(len(r.nodes) - before)

	c := &Codec{
		reg:     r,
		typ:     t,
		variant: kind,
		read:    read,
		write:   write,
		root:    root,
	}
	r.codecs.Store(t, c)
	r.order = append(r.order, c)
	r.logger.Debug("strictpack: compiled codec", "type", t.String(), "variant", kind.String(),
		"nodes", stats.Types, "markup", Markup(read))
	return c, nil
}

// Package tokenmeta implements the token-metadata resolver (C5): given a
// contract address and the standard suspected by the classifier's first
// pass, it fetches name/symbol/decimals via read-only calls, defaulting to
// empty/zero on any failure rather than aborting the simulation, and caches
// results in a per-resolver LRU cache whose entries expire after its TTL.
package tokenmeta

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/amadimichael/evmsim/internal/simtypes"
)

const metadataABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

const defaultCacheCapacity = 1024
const defaultCacheTTL = 5 * time.Minute

// Resolver resolves and caches token metadata over a read-only RPC backend.
// bind.ContractCaller covers the ReadCaller contract in SPEC_FULL.md §6
// (CallContract) plus CodeAt; rpcclient's adapter satisfies it.
type Resolver struct {
	backend bind.ContractCaller
	abi     abi.ABI
	cache   *metadataCache
}

// New builds a Resolver backed by the given read-only call interface, using
// the default cache capacity and TTL.
func New(backend bind.ContractCaller) *Resolver {
	return NewWithCache(backend, defaultCacheCapacity, defaultCacheTTL)
}

// NewWithCache builds a Resolver with an explicit cache capacity and TTL,
// e.g. as loaded by internal/config's ResolverConfig.
func NewWithCache(backend bind.ContractCaller, cacheCapacity int, cacheTTL time.Duration) *Resolver {
	parsed, err := abi.JSON(strings.NewReader(metadataABI))
	if err != nil {
		// metadataABI is a constant; a parse failure here is a programmer error.
		panic("tokenmeta: invalid built-in metadata ABI: " + err.Error())
	}
	return &Resolver{
		backend: backend,
		abi:     parsed,
		cache:   newMetadataCache(cacheCapacity, cacheTTL),
	}
}

// Resolve fetches metadata for address under the given suspected standard
// (§4.5). It never returns an error: every failure degrades individual
// fields to their zero value, since metadata absence must not abort
// simulation.
func (r *Resolver) Resolve(ctx context.Context, address common.Address, standard simtypes.Standard) simtypes.TokenInfo {
	if ctx == nil {
		ctx = context.Background()
	}

	key := cacheKey{address: address, standard: standard}
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	info := simtypes.TokenInfo{
		Standard: standard,
		Address:  address,
		Decimals: uint256.NewInt(0),
	}

	contract := bind.NewBoundContract(address, r.abi, r.backend, nil, nil)
	opts := &bind.CallOpts{Context: ctx}

	switch standard {
	case simtypes.StandardEip1155:
		info.Name = r.callString(contract, opts, "name")

	case simtypes.StandardEip721:
		info.Name = r.callString(contract, opts, "name")
		info.Symbol = r.callString(contract, opts, "symbol")

	default: // StandardEip20, StandardNone
		info.Name = r.callString(contract, opts, "name")
		info.Symbol = r.callString(contract, opts, "symbol")
		if d, ok := r.callUint8(contract, opts, "decimals"); ok {
			info.Decimals = uint256.NewInt(uint64(d))
		}
	}

	r.cache.Set(key, info)
	return info
}

// callString calls a no-argument view function returning string, defaulting
// to "" on any RPC, revert, or decode failure (§4.5).
func (r *Resolver) callString(contract *bind.BoundContract, opts *bind.CallOpts, method string) string {
	var out []interface{}
	if err := contract.Call(opts, &out, method); err != nil || len(out) == 0 {
		return ""
	}
	s, ok := abi.ConvertType(out[0], new(string)).(*string)
	if !ok {
		return ""
	}
	return *s
}

// callUint8 calls a no-argument view function returning uint8, reporting
// whether the call succeeded so the caller can leave Decimals at its zero
// default rather than conflating "unset" with "explicitly zero".
func (r *Resolver) callUint8(contract *bind.BoundContract, opts *bind.CallOpts, method string) (uint8, bool) {
	var out []interface{}
	if err := contract.Call(opts, &out, method); err != nil || len(out) == 0 {
		return 0, false
	}
	v, ok := abi.ConvertType(out[0], new(uint8)).(*uint8)
	if !ok {
		return 0, false
	}
	return *v, true
}

package core

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const lockStripes = 256

// lockTable serializes transactions touching the same record. Asset stripes
// guard everything keyed by an asset (definition, holdings, auction record);
// account stripes guard balances and nonces. A transaction takes its asset
// stripes before its account stripes, each set in ascending order, so two
// transactions can never wait on each other.
type lockTable struct {
	assets   [lockStripes]sync.Mutex
	accounts [lockStripes]sync.Mutex
}

type lockSet struct {
	assets   []int
	accounts []int
}

func stripe(key []byte) int {
	return int(xxhash.Sum64(key) % lockStripes)
}

func (s *lockSet) addAsset(id [32]byte) {
	s.assets = append(s.assets, stripe(id[:]))
}

func (s *lockSet) addAccount(addr [20]byte) {
	s.accounts = append(s.accounts, stripe(addr[:]))
}

func dedupeSorted(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	sort.Ints(in)
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// acquire locks every stripe in s and returns the matching release func.
func (t *lockTable) acquire(s lockSet) func() {
	assets := dedupeSorted(s.assets)
	accounts := dedupeSorted(s.accounts)
	for _, idx := range assets {
		t.assets[idx].Lock()
	}
	for _, idx := range accounts {
		t.accounts[idx].Lock()
	}
	return func() {
		for i := len(accounts) - 1; i >= 0; i-- {
			t.accounts[accounts[i]].Unlock()
		}
		for i := len(assets) - 1; i >= 0; i-- {
			t.assets[assets[i]].Unlock()
		}
	}
}

package auction

import (
	"auctionchain/crypto"
	"auctionchain/native/common"
)

const ModuleName = "auction"

var (
	// ProgramID is the program address owning every auction authority.
	ProgramID = crypto.ModuleAddress(ModuleName)

	authoritySeed = []byte("sale")
)

// Authority is the program-derived account that owns an auction's vault and
// record. No signing key is known for it.
type Authority struct {
	Address [20]byte
	Bump    uint8
}

// Seeds returns the seed list for asset without the bump.
func Seeds(asset [32]byte) [][]byte {
	return [][]byte{authoritySeed, append([]byte(nil), asset[:]...)}
}

// DeriveAuthority maps an asset to its authority. The result depends only on
// the asset identifier.
func DeriveAuthority(asset [32]byte) (Authority, error) {
	addr, bump, err := crypto.FindProgramAddress(ProgramID, Seeds(asset)...)
	if err != nil {
		return Authority{}, err
	}
	return Authority{Address: addr, Bump: bump}, nil
}

// Signer builds the seed proof accepted by custody primitives for debits from
// the authority account.
func Signer(asset [32]byte, bump uint8) common.ProgramSigner {
	return common.ProgramSigner{
		Program: ProgramID,
		Seeds:   append(Seeds(asset), []byte{bump}),
	}
}

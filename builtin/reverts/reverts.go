// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why a ledger operation was reverted.
type Kind uint8

const (
	Unknown Kind = iota
	AuthorizationFault
	CustodyFault
	InsufficientCustody
	PrematureWithdrawal
	InvalidRarityTable
	Overflow
	InvalidAmount
	FarmInactive
	FarmerNotStaked
	NotFound
)

var kindNames = [...]string{
	Unknown:             "unknown",
	AuthorizationFault:  "authorization fault",
	CustodyFault:        "custody fault",
	InsufficientCustody: "insufficient custody",
	PrematureWithdrawal: "premature withdrawal",
	InvalidRarityTable:  "invalid rarity table",
	Overflow:            "overflow",
	InvalidAmount:       "invalid amount",
	FarmInactive:        "farm inactive",
	FarmerNotStaked:     "farmer not staked",
	NotFound:            "not found",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ErrRevert aborts the transaction it occurs in.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.kind.String() + ": " + e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Message() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped in err, Unknown if there is none.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return Unknown
}

// IsKind reports whether err wraps a revert of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

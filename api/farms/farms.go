// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farms

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/api/utils"
	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/builtin/farm/flash"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/ledger"
	"github.com/vechain/gemfarm/logdb"
	"github.com/vechain/gemfarm/state"
)

type Farms struct {
	ledger *ledger.Ledger
	logDB  *logdb.LogDB
	limit  uint64
	now    func() uint64
}

func New(ledger *ledger.Ledger, logDB *logdb.LogDB, limit uint64) *Farms {
	return &Farms{
		ledger: ledger,
		logDB:  logDB,
		limit:  limit,
		now:    func() uint64 { return uint64(time.Now().Unix()) },
	}
}

func parseAddress(req *http.Request, name string) (gem.Address, error) {
	addr, err := gem.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return gem.Address{}, utils.BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

func (f *Farms) handleGetFarm(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "farm")
	if err != nil {
		return err
	}
	var view *Farm
	if err := f.ledger.View(func(st *state.State) error {
		fm, err := farm.New(st).GetFarm(addr)
		if err != nil {
			return err
		}
		view = convertFarm(addr, fm)
		return nil
	}); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, view)
}

func (f *Farms) handleGetFarmer(w http.ResponseWriter, req *http.Request) error {
	farmAddr, err := parseAddress(req, "farm")
	if err != nil {
		return err
	}
	identity, err := parseAddress(req, "identity")
	if err != nil {
		return err
	}
	addr, nonce := farm.FindFarmer(farmAddr, identity)

	var view *Farmer
	if err := f.ledger.View(func(st *state.State) error {
		farmer, err := farm.New(st).GetFarmer(addr)
		if err != nil {
			return err
		}
		if farmer.Farm != farmAddr {
			return errors.New("farmer index corrupted")
		}
		vault, err := custody.New(st).GetVault(farmer.Vault)
		if err != nil {
			return err
		}
		view = convertFarmer(addr, nonce, farmer, farmer.Vault, vault)
		return nil
	}); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, view)
}

func (f *Farms) handleFlashWithdraw(w http.ResponseWriter, req *http.Request) error {
	farmAddr, err := parseAddress(req, "farm")
	if err != nil {
		return err
	}
	var body FlashWithdraw
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	farmerAddr, farmerNonce := farm.FindFarmer(farmAddr, body.Identity)
	if body.FarmerNonce != nil {
		farmerNonce = *body.FarmerNonce
	}
	var nonces gem.Nonces
	if body.Nonces != nil {
		nonces = *body.Nonces
	} else {
		if err := f.ledger.View(func(st *state.State) error {
			fm, err := farm.New(st).GetFarm(farmAddr)
			if err != nil {
				return err
			}
			nonces = custody.FindNonces(fm.Bank, body.Vault, body.Mint)
			return nil
		}); err != nil {
			return utils.RevertError(err)
		}
	}

	receipt, _, err := flash.Execute(req.Context(), f.ledger, &flash.Request{
		Farm:        farmAddr,
		Farmer:      farmerAddr,
		FarmerNonce: farmerNonce,
		Identity:    body.Identity,
		Vault:       body.Vault,
		Destination: body.Destination,
		Mint:        body.Mint,
		Amount:      body.Amount,
		Nonces:      nonces,
		Now:         f.now(),
	})
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func parseUint(req *http.Request, name string, def uint64) (uint64, error) {
	s := req.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

func (f *Farms) handleFilterWithdrawals(w http.ResponseWriter, req *http.Request) error {
	farmAddr, err := parseAddress(req, "farm")
	if err != nil {
		return err
	}
	filter := &logdb.WithdrawalFilter{Farm: &farmAddr}

	query := req.URL.Query()
	if s := query.Get("farmer"); s != "" {
		farmer, err := gem.ParseAddress(s)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "farmer"))
		}
		filter.Farmer = &farmer
	}
	if query.Has("from") || query.Has("to") {
		unit := logdb.RangeType(query.Get("unit"))
		if unit == "" {
			unit = logdb.Seq
		}
		if unit != logdb.Seq && unit != logdb.Time {
			return utils.BadRequest(errors.New("unit: must be seq or time"))
		}
		from, err := parseUint(req, "from", 0)
		if err != nil {
			return err
		}
		to, err := parseUint(req, "to", ^uint64(0))
		if err != nil {
			return err
		}
		filter.Range = &logdb.Range{Unit: unit, From: from, To: to}
	}
	offset, err := parseUint(req, "offset", 0)
	if err != nil {
		return err
	}
	limit, err := parseUint(req, "limit", f.limit)
	if err != nil {
		return err
	}
	if limit > f.limit {
		return utils.Forbidden(errors.Errorf("limit: exceeds maximum of %d", f.limit))
	}
	filter.Options = &logdb.Options{Offset: offset, Limit: limit}
	switch order := logdb.Order(query.Get("order")); order {
	case "", logdb.ASC, logdb.DESC:
		filter.Order = order
	default:
		return utils.BadRequest(errors.New("order: must be asc or desc"))
	}

	withdrawals, err := f.logDB.FilterWithdrawals(req.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Withdrawal, 0, len(withdrawals))
	for _, wd := range withdrawals {
		out = append(out, convertWithdrawal(wd))
	}
	return utils.WriteJSON(w, out)
}

func (f *Farms) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{farm}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(f.handleGetFarm))
	sub.Path("/{farm}/farmers/{identity}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(f.handleGetFarmer))
	sub.Path("/{farm}/flash-withdraw").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(f.handleFlashWithdraw))
	if f.logDB != nil {
		sub.Path("/{farm}/events").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(f.handleFilterWithdrawals))
	}
}

package api

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/recruitment"
	"github.com/ppelicano/laokas-smart-contract/refund"
	"github.com/ppelicano/laokas-smart-contract/registry"
	"github.com/shopspring/decimal"
)

type assetView struct {
	Symbol         common.Symbol   `json:"symbol"`
	Hash           string          `json:"hash"`
	Decimals       int             `json:"decimals"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

type accountView struct {
	Participant string          `json:"participant"`
	Symbol      common.Symbol   `json:"symbol"`
	Balance     decimal.Decimal `json:"balance"`
}

type trancheView struct {
	Index       uint32                          `json:"index"`
	Percentages [refund.Months]int64            `json:"percentages"`
	Initial     decimal.Decimal                 `json:"initial"`
	Funded      decimal.Decimal                 `json:"funded"`
	State       string                          `json:"state"`
	Plan        *[refund.Months]decimal.Decimal `json:"plan,omitempty"`
}

func (s *Server) assetView(a registry.Asset) (assetView, error) {
	initial, err := s.engine.InitialDepositAmount(a.Symbol)
	if err != nil {
		return assetView{}, err
	}

	return assetView{
		Symbol:         a.Symbol,
		Hash:           "0x" + a.Hash.StringLE(),
		Decimals:       a.Decimals,
		InitialDeposit: fromUnits(initial, a.Decimals),
	}, nil
}

func trancheViewOf(t recruitment.Tranche, decimals int) trancheView {
	return trancheView{
		Index:       t.Index,
		Percentages: t.Percentages(),
		Initial:     fromUnits(t.Initial, decimals),
		Funded:      fromUnits(t.Funded, decimals),
		State:       t.State.String(),
	}
}

func (s *Server) listAssets(c *fiber.Ctx) error {
	assets, err := s.engine.Assets()
	if err != nil {
		return err
	}

	res := make([]assetView, len(assets))
	for i := range assets {
		res[i], err = s.assetView(assets[i])
		if err != nil {
			return err
		}
	}
	return c.JSON(res)
}

func (s *Server) getAsset(c *fiber.Ctx) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return err
	}

	a, err := s.engine.Resolve(symbol)
	if err != nil {
		return err
	}

	res, err := s.assetView(a)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) whitelist(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	var req struct {
		Symbol   common.Symbol `json:"symbol"`
		Decimals int           `json:"decimals"`
	}
	if err = parseBody(c, &req); err != nil {
		return err
	}

	tok, ok := s.tokens[req.Symbol]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no token contract for %s", req.Symbol))
	}

	err = s.engine.Whitelist(caller, req.Symbol, tok.Handle(s.engine.Address()), req.Decimals)
	if err != nil {
		return err
	}

	a, err := s.engine.Resolve(req.Symbol)
	if err != nil {
		return err
	}

	res, err := s.assetView(a)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *Server) initialDeposit(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	var req struct {
		Symbol common.Symbol `json:"symbol"`
		Month1 int64         `json:"month1"`
		Month2 int64         `json:"month2"`
	}
	if err = parseBody(c, &req); err != nil {
		return err
	}

	idx, err := s.engine.SetInitialDeposit(caller, req.Symbol, req.Month1, req.Month2)
	if err != nil {
		return err
	}

	t, a, err := s.tranche(caller, req.Symbol, idx)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(trancheViewOf(t, a.Decimals))
}

func (s *Server) finalDeposit(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	var req struct {
		Symbol common.Symbol   `json:"symbol"`
		Amount decimal.Decimal `json:"amount"`
		Index  uint32          `json:"index"`
	}
	if err = parseBody(c, &req); err != nil {
		return err
	}

	a, amount, err := s.amountOf(req.Symbol, req.Amount)
	if err != nil {
		return err
	}

	err = s.engine.SetFinalDeposit(caller, req.Symbol, amount, req.Index)
	if err != nil {
		return err
	}

	return s.sendAccount(c, caller, a)
}

func (s *Server) withdraw(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	var req struct {
		Participant string          `json:"participant"`
		Symbol      common.Symbol   `json:"symbol"`
		Amount      decimal.Decimal `json:"amount"`
	}
	if err = parseBody(c, &req); err != nil {
		return err
	}

	participant, err := parseAddress(req.Participant)
	if err != nil {
		return err
	}

	// amount conversion needs the asset, so ownership is checked first
	err = common.CheckOwnerWitness(s.engine.Owner(), caller)
	if err != nil {
		return err
	}

	a, amount, err := s.amountOf(req.Symbol, req.Amount)
	if err != nil {
		return err
	}

	err = s.engine.Withdraw(caller, participant, req.Symbol, amount)
	if err != nil {
		return err
	}

	return s.sendAccount(c, participant, a)
}

func (s *Server) getAccount(c *fiber.Ctx) error {
	participant, symbol, err := accountParams(c)
	if err != nil {
		return err
	}

	a, err := s.engine.Resolve(symbol)
	if err != nil {
		return err
	}
	return s.sendAccount(c, participant, a)
}

func (s *Server) listRefunds(c *fiber.Ctx) error {
	participant, symbol, err := accountParams(c)
	if err != nil {
		return err
	}

	a, err := s.engine.Resolve(symbol)
	if err != nil {
		return err
	}

	entries, err := s.engine.RefundSchedule(participant, symbol)
	if err != nil {
		return err
	}

	res := make([]trancheView, 0, len(entries))
	for i := range entries {
		t, err := s.engine.Tranche(participant, symbol, uint32(i))
		if err != nil {
			return err
		}
		res = append(res, trancheViewOf(t, a.Decimals))
	}
	return c.JSON(res)
}

func (s *Server) getRefund(c *fiber.Ctx) error {
	participant, symbol, err := accountParams(c)
	if err != nil {
		return err
	}

	idx, err := strconv.ParseUint(c.Params("index"), 10, 32)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid tranche index: %v", err))
	}

	t, a, err := s.tranche(participant, symbol, uint32(idx))
	if err != nil {
		return err
	}

	res := trancheViewOf(t, a.Decimals)
	plan := refund.Plan(t.Entry, t.Funded)
	res.Plan = new([refund.Months]decimal.Decimal)
	for i := range plan {
		res.Plan[i] = fromUnits(plan[i], a.Decimals)
	}
	return c.JSON(res)
}

func (s *Server) approve(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	symbol, err := symbolParam(c)
	if err != nil {
		return err
	}

	tok, ok := s.tokens[symbol]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no token contract for %s", symbol))
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err = parseBody(c, &req); err != nil {
		return err
	}

	amount, err := toUnits(req.Amount, tok.Decimals())
	if err != nil {
		return err
	}

	err = tok.Approve(caller, s.engine.Address(), amount)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	return c.JSON(fiber.Map{
		"owner":     address.Uint160ToString(caller),
		"spender":   address.Uint160ToString(s.engine.Address()),
		"allowance": req.Amount,
	})
}

func (s *Server) tokenBalance(c *fiber.Ctx) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return err
	}

	acc, err := parseAddress(c.Params("address"))
	if err != nil {
		return err
	}

	tok, ok := s.tokens[symbol]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no token contract for %s", symbol))
	}

	b, err := tok.BalanceOf(acc)
	if err != nil {
		return err
	}

	return c.JSON(accountView{
		Participant: address.Uint160ToString(acc),
		Symbol:      symbol,
		Balance:     fromUnits(b, tok.Decimals()),
	})
}

func (s *Server) sendAccount(c *fiber.Ctx, participant util.Uint160, a registry.Asset) error {
	b, err := s.engine.BalanceOf(participant, a.Symbol)
	if err != nil {
		return err
	}

	return c.JSON(accountView{
		Participant: address.Uint160ToString(participant),
		Symbol:      a.Symbol,
		Balance:     fromUnits(b, a.Decimals),
	})
}

func (s *Server) tranche(participant util.Uint160, symbol common.Symbol, idx uint32) (recruitment.Tranche, registry.Asset, error) {
	a, err := s.engine.Resolve(symbol)
	if err != nil {
		return recruitment.Tranche{}, a, err
	}

	t, err := s.engine.Tranche(participant, symbol, idx)
	return t, a, err
}

// amountOf converts whole token amount into the smallest fractions of the
// whitelisted token.
func (s *Server) amountOf(symbol common.Symbol, d decimal.Decimal) (registry.Asset, *big.Int, error) {
	a, err := s.engine.Resolve(symbol)
	if err != nil {
		return a, nil, err
	}

	v, err := toUnits(d, a.Decimals)
	return a, v, err
}

func callerOf(c *fiber.Ctx) (util.Uint160, error) {
	s := c.Get(headerCaller)
	if s == "" {
		return util.Uint160{}, fiber.NewError(fiber.StatusUnauthorized, "missing "+headerCaller+" header")
	}
	return parseAddress(s)
}

func parseAddress(s string) (util.Uint160, error) {
	res, err := address.StringToUint160(s)
	if err != nil {
		return res, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid address %q: %v", s, err))
	}
	return res, nil
}

func symbolParam(c *fiber.Ctx) (common.Symbol, error) {
	res, err := common.ParseSymbol(c.Params("symbol"))
	if err != nil {
		return res, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return res, nil
}

func accountParams(c *fiber.Ctx) (util.Uint160, common.Symbol, error) {
	participant, err := parseAddress(c.Params("address"))
	if err != nil {
		return participant, common.Symbol{}, err
	}

	symbol, err := symbolParam(c)
	return participant, symbol, err
}

func parseBody(c *fiber.Ctx, v any) error {
	err := c.BodyParser(v)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

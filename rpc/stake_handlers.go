package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"stakevault/crypto"
	"stakevault/native/stake"
)

type stakeParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
	Period uint64 `json:"period"`
}

type callerParams struct {
	Caller string `json:"caller"`
}

type prolongParams struct {
	Caller    string `json:"caller"`
	NewPeriod uint64 `json:"newPeriod"`
}

type fundParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type positionResult struct {
	Amount            string `json:"amount"`
	StartedAt         uint64 `json:"startedAt"`
	Period            uint64 `json:"period"`
	ActiveUntil       uint64 `json:"activeUntil"`
	LastRewardClaimAt uint64 `json:"lastRewardClaimAt"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func parseCaller(caller string) (crypto.Address, error) {
	trimmed := strings.TrimSpace(caller)
	if trimmed == "" {
		return crypto.Address{}, fmt.Errorf("caller is required")
	}
	return crypto.DecodeAddress(trimmed)
}

func decodeParams(req *RPCRequest, out any) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params stakeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Stake(caller, amount, params.Period); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.log.Info("stake opened", "caller", params.Caller, "period", params.Period)
	s.publishGauges()
	writeResult(w, req.ID, amountResult{Amount: amount.String()})
}

func (s *Server) handleIncrease(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params fundParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.IncreaseStake(caller, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishGauges()
	writeResult(w, req.ID, amountResult{Amount: amount.String()})
}

func (s *Server) handleProlong(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params prolongParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Prolong(caller, params.NewPeriod); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"newPeriod": params.NewPeriod})
}

func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payout, err := s.engine.Harvest(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.AddRewardsPaid(payout)
	s.publishGauges()
	writeResult(w, req.ID, amountResult{Amount: payout.String()})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.withdraw(w, req, false)
}

func (s *Server) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.withdraw(w, req, true)
}

func (s *Server) withdraw(w http.ResponseWriter, req *RPCRequest, early bool) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	var returned *big.Int
	if early {
		returned, err = s.engine.EmergencyWithdraw(caller)
	} else {
		returned, err = s.engine.Withdraw(caller)
	}
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.log.Info("stake withdrawn", "caller", params.Caller, "early", early)
	s.publishGauges()
	writeResult(w, req.ID, amountResult{Amount: returned.String()})
}

func (s *Server) handleFundRewardPool(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params fundParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.FundRewardPool(caller, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.log.Info("reward pool funded", "contributor", params.Caller)
	s.publishGauges()
	writeResult(w, req.ID, amountResult{Amount: amount.String()})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pos, ok, err := s.engine.GetPosition(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeStakeRejected, stake.ErrStakeNotFound.Error(), nil)
		return
	}
	writeResult(w, req.ID, positionResult{
		Amount:            pos.Amount.String(),
		StartedAt:         pos.StartedAt,
		Period:            pos.PeriodDays,
		ActiveUntil:       pos.ActiveUntil,
		LastRewardClaimAt: pos.LastRewardClaimAt,
	})
}

func (s *Server) handlePreviewClaim(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payout, err := s.engine.PreviewClaim(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: payout.String()})
}

type eventResult struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	events := s.engine.Events()
	results := make([]eventResult, 0, len(events))
	for _, ev := range events {
		if ev == nil {
			continue
		}
		results = append(results, eventResult{Type: ev.Type, Attributes: ev.Attributes})
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handlePendingReward(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseCaller(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pending, err := s.engine.PendingReward(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: pending.String()})
}

func (s *Server) handleTotalStaked(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	total, err := s.engine.TotalStaked()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: total.String()})
}

func (s *Server) handleRewardPool(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	balance, err := s.engine.RewardPoolBalance()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: balance.String()})
}

func (s *Server) publishGauges() {
	if total, err := s.engine.TotalStaked(); err == nil {
		s.metrics.SetTotalStaked(total)
	}
	if pool, err := s.engine.RewardPoolBalance(); err == nil {
		s.metrics.SetPoolBalance(pool)
	}
}

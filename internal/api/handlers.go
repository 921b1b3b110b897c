package api

import "net/http"

type tokenResponse struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol,omitempty"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
	Owner       string `json:"owner"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	meta := s.host.Metadata()
	writeJSON(w, http.StatusOK, tokenResponse{
		Name:        meta.Name,
		Symbol:      meta.Symbol,
		Decimals:    meta.Decimals,
		TotalSupply: meta.TotalSupply.Dec(),
		Owner:       meta.Owner.String(),
	})
}

type balanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	Display   string `json:"display"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAccount("account_id", r.URL.Query().Get("account_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	balance, err := s.host.BalanceOf(r.Context(), account)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		AccountID: account.String(),
		Balance:   balance.Dec(),
		Display:   displayAmount(balance, s.host.Metadata().Decimals),
	})
}

type allowanceResponse struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, err := parseAccount("owner", q.Get("owner"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	spender, err := parseAccount("spender", q.Get("spender"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	value, err := s.host.Allowance(r.Context(), owner, spender)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, allowanceResponse{
		Owner:     owner.String(),
		Spender:   spender.String(),
		Allowance: value.Dec(),
	})
}

type transferRequest struct {
	To    string `json:"to"`
	Value string `json:"value"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	to, err := parseAccount("to", req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	value, err := parseAmount("value", req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ev, err := s.host.Transfer(r.Context(), caller, to, value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

type transferFromRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req transferFromRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	from, err := parseAccount("from", req.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := parseAccount("to", req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	value, err := parseAmount("value", req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ev, err := s.host.TransferFrom(r.Context(), caller, from, to, value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

type approveRequest struct {
	Spender string `json:"spender"`
	Value   string `json:"value"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req approveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	spender, err := parseAccount("spender", req.Spender)
	if err != nil {
		s.writeError(w, err)
		return
	}
	value, err := parseAmount("value", req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ev, err := s.host.Approve(r.Context(), caller, spender, value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

type auditResponse struct {
	TotalSupply string `json:"total_supply"`
	Circulating string `json:"circulating"`
	Holders     int    `json:"holders"`
	Balanced    bool   `json:"balanced"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	report, err := s.host.Audit(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auditResponse{
		TotalSupply: report.TotalSupply.Dec(),
		Circulating: report.Circulating.Dec(),
		Holders:     report.Holders,
		Balanced:    report.Balanced,
	})
}

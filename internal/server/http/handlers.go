package http

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/jointbank/internal/common"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/dmitrijs2005/jointbank/internal/server/services"
	"github.com/gin-gonic/gin"
)

// bindJSON decodes the body into dst and answers 400 on malformed input.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, common.ErrorInvalid)
		return false
	}
	return true
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "user_id", user.ID)
	respondOK(c, http.StatusCreated, toUser(user))
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	pair, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toTokenPair(pair))
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if !s.bindJSON(c, &req) {
		return
	}

	pair, err := s.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toTokenPair(pair))
}

func (s *Server) me(c *gin.Context) {
	user, err := s.users.GetUser(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toUser(user))
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if !s.bindJSON(c, &req) {
		return
	}

	account, err := s.accounts.CreateAccount(c.Request.Context(), callerID(c), req.Name, req.Currency)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toAccount(account))
}

func (s *Server) listAccounts(c *gin.Context) {
	list, err := s.accounts.ListAccounts(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAccount(a))
	}
	respondOK(c, http.StatusOK, out)
}

func (s *Server) getAccount(c *gin.Context) {
	account, err := s.accounts.GetAccount(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toAccount(account))
}

func (s *Server) inviteOwner(c *gin.Context) {
	var req inviteRequest
	if !s.bindJSON(c, &req) {
		return
	}

	owner, err := s.accounts.InviteOwner(c.Request.Context(), c.Param("id"), callerID(c), req.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toOwnership(owner))
}

func (s *Server) listTransactions(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		s.respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		s.respondError(c, err)
		return
	}

	list, err := s.accounts.ListTransactions(c.Request.Context(), c.Param("id"), callerID(c), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransaction(t))
	}
	respondOK(c, http.StatusOK, out)
}

func (s *Server) createTransaction(c *gin.Context) {
	var req createTransactionRequest
	if !s.bindJSON(c, &req) {
		return
	}

	t, err := s.accounts.CreateTransaction(c.Request.Context(), c.Param("id"), callerID(c), services.TransactionRequest{
		Type:          models.TransactionType(req.Type),
		Amount:        req.Amount,
		Description:   req.Description,
		RecipientIBAN: req.RecipientIBAN,
		RecipientName: req.RecipientName,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toTransaction(t))
}

func (s *Server) exportStatement(c *gin.Context) {
	link, err := s.statements.Export(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, statementResponse{URL: link.URL, Key: link.Key})
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.ErrorInvalid
	}
	return v, nil
}

package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"server/internal/domain"
)

const maxWebhookBody = 1 << 20

// PaymentSignatureHeader carries the gateway's HMAC-SHA256 hex digest of
// the raw request body.
const PaymentSignatureHeader = "X-Payment-Signature"

// TokensBalance returns the account balance and recent ledger entries.
func (a *App) TokensBalance(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	balance, err := a.Ledger.Balance(r.Context(), accountID)
	if err != nil {
		a.Logger.Error().Err(err).Str("account_id", accountID).Msg("tokens: balance read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}
	txs, err := a.Ledger.Transactions(r.Context(), accountID, 20)
	if err != nil {
		a.Logger.Error().Err(err).Str("account_id", accountID).Msg("tokens: transactions read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load transactions")
		return
	}
	items := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		item := map[string]any{
			"id":          tx.ID,
			"type":        string(tx.Type),
			"amount":      tx.Amount,
			"description": tx.Description,
			"created_at":  tx.CreatedAt,
		}
		if tx.RelatedTaskID != "" {
			item["related_task_id"] = tx.RelatedTaskID
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"balance":      balance,
			"transactions": items,
		},
	})
}

// TokensWelcome grants the one-time signup bonus. The ledger's reference
// idempotency makes repeat claims a no-op.
func (a *App) TokensWelcome(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	granted := true
	_, err := a.Ledger.Credit(r.Context(), accountID, domain.CreditParams{
		Type:        domain.TransactionBonus,
		Amount:      a.Config.WelcomeBonusTokens,
		Description: "welcome bonus",
		Reference:   "welcome:" + accountID,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateOperation) {
			a.Logger.Error().Err(err).Str("account_id", accountID).Msg("tokens: welcome credit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to grant bonus")
			return
		}
		granted = false
	}
	balance, err := a.Ledger.Balance(r.Context(), accountID)
	if err != nil {
		a.Logger.Error().Err(err).Str("account_id", accountID).Msg("tokens: balance read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"granted": granted,
			"balance": balance,
		},
	})
}

type purchaseNotification struct {
	Reference string `json:"reference"`
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// PurchaseWebhook records a token purchase reported by the payment gateway.
// The body is authenticated with an HMAC signature, credits are idempotent
// per gateway reference, and the buyer country is attached to the ledger
// entry when a GeoIP database is configured.
func (a *App) PurchaseWebhook(w http.ResponseWriter, r *http.Request) {
	if a.Config.PaymentWebhookSecret == "" {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "purchases are not configured")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	if !verifySignature(a.Config.PaymentWebhookSecret, body, r.Header.Get(PaymentSignatureHeader)) {
		a.Logger.Warn().Msg("purchase: signature mismatch")
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid signature")
		return
	}

	var note purchaseNotification
	if err := json.Unmarshal(body, &note); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if note.Reference == "" || note.AccountID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reference and account_id required")
		return
	}
	if !strings.EqualFold(note.Status, "paid") {
		// Pending / expired / cancelled notifications are acknowledged
		// without crediting; the gateway retries on state change.
		a.json(w, http.StatusOK, map[string]any{"success": true, "credited": false})
		return
	}
	if note.Amount <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be positive")
		return
	}

	metadata := map[string]any{"gateway_reference": note.Reference}
	if country := a.buyerCountry(r); country != "" {
		metadata["country"] = country
	}

	credited := true
	_, err = a.Ledger.Credit(r.Context(), note.AccountID, domain.CreditParams{
		Type:        domain.TransactionPurchase,
		Amount:      note.Amount,
		Description: "token purchase",
		Reference:   "purchase:" + note.Reference,
		Metadata:    metadata,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateOperation) {
			a.Logger.Error().Err(err).Str("reference", note.Reference).Msg("purchase: credit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to record purchase")
			return
		}
		credited = false
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "credited": credited})
}

func (a *App) buyerCountry(r *http.Request) string {
	if a.Geo == nil {
		return ""
	}
	ip := r.Header.Get("X-Forwarded-For")
	if idx := strings.IndexByte(ip, ','); idx >= 0 {
		ip = ip[:idx]
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	country, err := a.Geo.CountryCode(ip)
	if err != nil {
		return ""
	}
	return country
}

func verifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

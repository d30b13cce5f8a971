package httpserver

import (
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// BookSource holds the latest watched book per outcome.
// *orderbook.Manager satisfies it.
type BookSource interface {
	GetSnapshot(outcomeID string) (*types.OrderBook, bool)
	OutcomeIDs() []string
}

// OrderbookHandler handles HTTP requests for order book data.
type OrderbookHandler struct {
	books  BookSource
	logger *zap.Logger
}

// NewOrderbookHandler creates a new orderbook handler.
func NewOrderbookHandler(books BookSource, logger *zap.Logger) *OrderbookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderbookHandler{books: books, logger: logger}
}

// LevelResponse is one price level.
type LevelResponse struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderbookResponse is the JSON body of GET /api/orderbook.
type OrderbookResponse struct {
	OutcomeID    string          `json:"outcome_id"`
	Timestamp    int64           `json:"timestamp,omitempty"`
	BestBidPrice float64         `json:"best_bid_price"`
	BestBidSize  float64         `json:"best_bid_size"`
	BestAskPrice float64         `json:"best_ask_price"`
	BestAskSize  float64         `json:"best_ask_size"`
	Bids         []LevelResponse `json:"bids"`
	Asks         []LevelResponse `json:"asks"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Watched []string `json:"watched,omitempty"`
}

// HandleOrderbook handles GET /api/orderbook?outcome=<outcome-id>.
func (h *OrderbookHandler) HandleOrderbook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	outcomeID := r.URL.Query().Get("outcome")
	if outcomeID == "" {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "missing required query parameter: outcome",
			Watched: h.books.OutcomeIDs(),
		})
		return
	}

	h.logger.Debug("orderbook-request-received", zap.String("outcome-id", outcomeID))

	book, ok := h.books.GetSnapshot(outcomeID)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no book received for outcome"})
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderbookResponse(outcomeID, book))
}

func newOrderbookResponse(outcomeID string, book *types.OrderBook) OrderbookResponse {
	resp := OrderbookResponse{
		OutcomeID: outcomeID,
		Timestamp: book.Timestamp,
		Bids:      levels(book.Bids),
		Asks:      levels(book.Asks),
	}
	if bid, ok := book.BestBid(); ok {
		resp.BestBidPrice, resp.BestBidSize = bid.Price, bid.Size
	}
	if ask, ok := book.BestAsk(); ok {
		resp.BestAskPrice, resp.BestAskSize = ask.Price, ask.Size
	}
	return resp
}

func levels(ls []types.OrderLevel) []LevelResponse {
	out := make([]LevelResponse, len(ls))
	for i, l := range ls {
		out[i] = LevelResponse{Price: l.Price, Size: l.Size}
	}
	return out
}

func (h *OrderbookHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

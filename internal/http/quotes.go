package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain/quote"
	"github.com/onmir/booktracker/internal/entities"
)

type QuotesController struct {
	create *quote.CreateQuote
	update *quote.UpdateQuote
	remove *quote.DeleteQuote
	fetch  *quote.FetchQuotes
}

func NewQuotesController(manager *database.ContextManager) *QuotesController {
	return &QuotesController{
		create: quote.NewCreateQuote(manager),
		update: quote.NewUpdateQuote(manager),
		remove: quote.NewDeleteQuote(manager),
		fetch:  quote.NewFetchQuotes(manager),
	}
}

type quoteBody struct {
	Content string `json:"content"`
	Page    int64  `json:"page"`
}

// ListQuotes handles GET /api/books/:id/quotes?limit=
func (qc *QuotesController) ListQuotes(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}

	resp, err := qc.fetch.Execute(c.Request.Context(), quote.FetchRequest{BookID: bookID, Limit: limit})
	if err != nil {
		respondDomainError(c, err, "list quotes")
		return
	}
	quotes := resp.Quotes
	if quotes == nil {
		quotes = []entities.Quote{}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

// CreateQuote handles POST /api/books/:id/quotes
func (qc *QuotesController) CreateQuote(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body quoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	resp, err := qc.create.Execute(c.Request.Context(), quote.CreateRequest{
		BookID:  bookID,
		Content: body.Content,
		Page:    body.Page,
	})
	if err != nil {
		respondDomainError(c, err, "create quote")
		return
	}
	respondCreated(c, resp)
}

// UpdateQuote handles PUT /api/quotes/:id
func (qc *QuotesController) UpdateQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body quoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	err := qc.update.Execute(c.Request.Context(), quote.UpdateRequest{
		QuoteID: id,
		Content: body.Content,
		Page:    body.Page,
	})
	if err != nil {
		respondDomainError(c, err, "update quote")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteQuotes handles DELETE /api/quotes with {"quote_ids": [...]}.
// Ids that are already gone are listed in "missing".
func (qc *QuotesController) DeleteQuotes(c *gin.Context) {
	var req quote.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	resp, err := qc.remove.Execute(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err, "delete quotes")
		return
	}
	c.JSON(http.StatusOK, resp)
}

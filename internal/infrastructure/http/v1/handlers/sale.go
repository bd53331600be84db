package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/domain/documents/returns"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/reports"
	"pharmapos/internal/infrastructure/http/v1/dto"
)

// SaleHandler serves sale, return and sales-report endpoints.
type SaleHandler struct {
	*BaseHandler
	sales   *sale.Service
	returns *returns.Service
	reports *reports.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, sales *sale.Service, ret *returns.Service, rep *reports.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, sales: sales, returns: ret, reports: rep}
}

// Create handles POST /sales.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input := sale.CreateInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		DoctorName:    req.DoctorName,
		PaymentMode:   sale.PaymentMode(req.PaymentMode),
		SaleDate:      req.SaleDate,
		Manual:        req.Manual,
	}
	for _, line := range req.Items {
		item, err := line.ToItemInput()
		if err != nil {
			h.Error(c, err)
			return
		}
		input.Items = append(input.Items, item)
	}

	doc, err := h.sales.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(doc))
}

// Get handles GET /sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.sales.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(doc))
}

// NextID handles GET /sales/next-id. Preview only; the counter moves when a
// billed sale is actually created.
func (h *SaleHandler) NextID(c *gin.Context) {
	next, err := h.sales.PeekNextInvoice(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"nextInvoiceNo": next})
}

// Filter handles GET /sales/filter?start&end or ?search=.
func (h *SaleHandler) Filter(c *gin.Context) {
	filter := sale.Filter{Search: c.Query("search")}

	if v := c.Query("start"); v != "" {
		start, err := time.Parse(time.RFC3339, v)
		if err != nil {
			// Bare dates are accepted too.
			start, err = time.Parse("2006-01-02", v)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid start date").WithDetail("start", v))
				return
			}
		}
		filter.DateFrom = &start
	}
	if v := c.Query("end"); v != "" {
		end, err := time.Parse(time.RFC3339, v)
		if err != nil {
			end, err = time.Parse("2006-01-02", v)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid end date").WithDetail("end", v))
				return
			}
			// Make a bare end date inclusive of the whole day.
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		filter.DateTo = &end
	}

	summary, err := h.reports.SalesSummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"sales":  dto.FromSales(summary.Sales),
		"totals": summary.Totals,
	})
}

// Update handles PUT /sales/:id.
func (h *SaleHandler) Update(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input := sale.UpdateInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		DoctorName:    req.DoctorName,
		PaymentMode:   sale.PaymentMode(req.PaymentMode),
		SaleDate:      req.SaleDate,
	}
	for _, line := range req.Items {
		item, err := line.ToItemInput()
		if err != nil {
			h.Error(c, err)
			return
		}
		input.Items = append(input.Items, item)
	}

	doc, err := h.sales.Update(c.Request.Context(), saleID, input)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(doc))
}

// Delete handles DELETE /sales/:id.
func (h *SaleHandler) Delete(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.sales.Delete(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Return handles POST /sales/:id/return.
func (h *SaleHandler) Return(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items, err := dto.ToReturnItems(req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.returns.Process(c.Request.Context(), saleID, items)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(doc))
}

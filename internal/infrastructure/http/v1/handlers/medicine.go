package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/catalogs/medicine"
	"pharmapos/internal/infrastructure/http/v1/dto"
)

// MedicineHandler serves the medicine catalog endpoints.
type MedicineHandler struct {
	*BaseHandler
	service *medicine.Service
}

// NewMedicineHandler creates a new medicine handler.
func NewMedicineHandler(base *BaseHandler, service *medicine.Service) *MedicineHandler {
	return &MedicineHandler{BaseHandler: base, service: service}
}

// List handles GET /medicines.
func (h *MedicineHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMedicines(items, h.IsAdmin(c)))
}

// Search handles GET /medicines/search?q=.
func (h *MedicineHandler) Search(c *gin.Context) {
	items, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMedicines(items, h.IsAdmin(c)))
}

// Expiring handles GET /medicines/expiring?days=N.
func (h *MedicineHandler) Expiring(c *gin.Context) {
	days := h.ParseIntQuery(c, "days", 0)
	items, err := h.service.Expiring(c.Request.Context(), days)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMedicines(items, h.IsAdmin(c)))
}

// Get handles GET /medicines/:id.
func (h *MedicineHandler) Get(c *gin.Context) {
	medicineID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), medicineID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMedicine(m, h.IsAdmin(c)))
}

// Create handles POST /medicines.
func (h *MedicineHandler) Create(c *gin.Context) {
	var req dto.CreateMedicineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := medicine.NewMedicine(req.Name, req.Batch)
	m.Expiry = req.Expiry
	m.HSN = req.HSN
	m.Quantity = req.Quantity
	m.LooseQty = req.LooseQty
	m.BillImageRef = req.BillImageRef
	if req.MRP != nil {
		m.MRP = *req.MRP
	}
	if req.SellingPrice != nil {
		m.SellingPrice = *req.SellingPrice
	}
	if req.CostPrice != nil {
		m.CostPrice = *req.CostPrice
	}
	if req.GSTPercent != nil {
		m.GSTPercent = *req.GSTPercent
	}
	if req.PackSize != nil {
		m.PackSize = types.NormalizePackSize(*req.PackSize)
	}
	if req.MaxDiscount != nil {
		m.MaxDiscount = *req.MaxDiscount
	}

	if err := h.service.Create(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m.ID)
}

// Update handles PUT /medicines/:id.
func (h *MedicineHandler) Update(c *gin.Context) {
	medicineID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMedicineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.Update(c.Request.Context(), medicineID, medicine.Patch{
		Name:         req.Name,
		Batch:        req.Batch,
		Expiry:       req.Expiry,
		HSN:          req.HSN,
		MRP:          req.MRP,
		SellingPrice: req.SellingPrice,
		CostPrice:    req.CostPrice,
		GSTPercent:   req.GSTPercent,
		PackSize:     req.PackSize,
		Quantity:     req.Quantity,
		LooseQty:     req.LooseQty,
		BillImageRef: req.BillImageRef,
		MaxDiscount:  req.MaxDiscount,
		Version:      req.Version,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMedicine(m, h.IsAdmin(c)))
}

// Delete handles DELETE /medicines/:id.
func (h *MedicineHandler) Delete(c *gin.Context) {
	medicineID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), medicineID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

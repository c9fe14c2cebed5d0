package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-stock/internal/application/billing"
	"github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Items         *inventory.ItemUseCase
	Adjustments   *inventory.AdjustmentUseCase
	Availability  *inventory.AvailabilityChecker
	CreateInvoice *billing.CreateInvoiceUseCase
	CancelInvoice *billing.CancelInvoiceUseCase
	InvoiceQuery  *billing.QueryUseCase
	InvoicePDF    *billing.PDFUseCase
	Logger        *logger.Logger
	JWTSecret     string
	JWTIssuer     string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las mutaciones
// además restringen por rol.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	errs := errorMapper{log: log}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	// Inventario
	invHandler := NewInventoryHandler(deps.Items, deps.Adjustments, deps.Availability, errs)
	inv := api.Group("/inventory")
	inv.Post("/availability", invHandler.CheckAvailability)
	inv.Get("/low-stock", RequireRole(RoleAdmin, RoleBodeguero), invHandler.LowStock)

	items := inv.Group("/items")
	items.Get("/", invHandler.ListItems)
	items.Post("/", RequireRole(RoleAdmin, RoleBodeguero), invHandler.CreateItem)
	items.Get("/:id", invHandler.GetItem)
	items.Put("/:id", RequireRole(RoleAdmin, RoleBodeguero), invHandler.UpdateItem)
	items.Post("/:id/deactivate", RequireRole(RoleAdmin), invHandler.DeactivateItem)
	items.Post("/:id/reactivate", RequireRole(RoleAdmin), invHandler.ReactivateItem)
	items.Post("/:id/adjustments", RequireRole(RoleAdmin, RoleBodeguero), invHandler.AdjustStock)
	items.Get("/:id/movements", invHandler.ListMovements)
	items.Get("/:id/reconcile", RequireRole(RoleAdmin), invHandler.Reconcile)
	items.Get("/:id/stock-card", RequireRole(RoleAdmin, RoleBodeguero), invHandler.StockCard)

	// Facturación
	invoiceHandler := NewInvoiceHandler(deps.CreateInvoice, deps.CancelInvoice, deps.InvoiceQuery, deps.InvoicePDF, errs)
	invoices := api.Group("/invoices")
	invoices.Post("/", RequireRole(RoleAdmin, RoleVendedor), invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/movements", invoiceHandler.Movements)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)
	invoices.Post("/:id/cancel", RequireRole(RoleAdmin, RoleVendedor), invoiceHandler.Cancel)
	invoices.Post("/:id/void", RequireRole(RoleAdmin), invoiceHandler.Void)
}

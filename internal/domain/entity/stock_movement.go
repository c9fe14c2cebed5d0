package entity

import "time"

// MovementType tipo de movimiento del libro de stock. Se persiste como texto y
// los valores no deben cambiar (datos históricos).
type MovementType string

const (
	MovementTypeInitial    MovementType = "INITIAL"    // stock inicial al crear el ítem
	MovementTypeSale       MovementType = "SALE"       // salida por factura
	MovementTypeReturn     MovementType = "RETURN"     // reingreso por anulación de factura
	MovementTypeRestock    MovementType = "RESTOCK"    // reposición
	MovementTypeAdjustment MovementType = "ADJUSTMENT" // corrección manual
	MovementTypeDamage     MovementType = "DAMAGE"     // baja por daño
)

// Valid indica si el tipo pertenece al enum persistido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeInitial, MovementTypeSale, MovementTypeReturn,
		MovementTypeRestock, MovementTypeAdjustment, MovementTypeDamage:
		return true
	}
	return false
}

// IsManual indica si el tipo es admitido por el motor de ajustes manuales.
func (t MovementType) IsManual() bool {
	return t == MovementTypeRestock || t == MovementTypeAdjustment || t == MovementTypeDamage
}

// ReferenceType origen del movimiento.
type ReferenceType string

const (
	ReferenceTypeInvoice ReferenceType = "INVOICE"
	ReferenceTypeManual  ReferenceType = "MANUAL"
)

// Valid indica si el tipo de referencia es conocido.
func (r ReferenceType) Valid() bool {
	return r == ReferenceTypeInvoice || r == ReferenceTypeManual
}

// StockMovement es una fila inmutable del libro de stock: un registro por cada transición.
// Invariante: PreviousLevel + Quantity == NewLevel.
type StockMovement struct {
	ID              string
	OrganizationID  string
	InventoryItemID string
	Type            MovementType
	Quantity        int64 // con signo: negativo en salidas
	PreviousLevel   int64
	NewLevel        int64
	ReferenceType   ReferenceType
	ReferenceID     *string // ID de factura o nil
	Reason          *string
	Notes           *string
	ActorID         string
	ActorKind       ActorKind
	CreatedAt       time.Time
}

// Consistent verifica la invariante del libro para la fila.
func (m *StockMovement) Consistent() bool {
	return m.PreviousLevel+m.Quantity == m.NewLevel
}

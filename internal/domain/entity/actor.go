package entity

// ActorKind distingue si la mutación la hizo una persona o un agente automatizado.
type ActorKind string

const (
	ActorKindUser  ActorKind = "USER"
	ActorKindAgent ActorKind = "AGENT"
)

// Valid indica si el tipo de actor es conocido.
func (k ActorKind) Valid() bool {
	return k == ActorKindUser || k == ActorKindAgent
}

// Actor contexto de identidad de cada mutación: organización (tenant) y quién la ejecuta.
type Actor struct {
	OrganizationID string
	UserID         string
	Kind           ActorKind
	Role           string
}

package enums

// SpanDirection describes which way a message span travelled.
type SpanDirection string

const (
	SpanDirectionInbound  SpanDirection = "inbound"
	SpanDirectionOutbound SpanDirection = "outbound"
	SpanDirectionInternal SpanDirection = "internal"
)

// SpanStatus is the outcome recorded on a message span.
type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "ok"
	SpanStatusError SpanStatus = "error"
)

// ActorRole identifies who changed an order in the order log.
type ActorRole string

const (
	ActorRoleCustomer ActorRole = "customer"
	ActorRoleBot      ActorRole = "bot"
	ActorRoleAdmin    ActorRole = "admin"
)

func (r ActorRole) IsValid() bool {
	return r == ActorRoleCustomer || r == ActorRoleBot || r == ActorRoleAdmin
}

// EscalationStatus tracks staff follow-up on an escalated conversation.
type EscalationStatus string

const (
	EscalationStatusOpen     EscalationStatus = "open"
	EscalationStatusResolved EscalationStatus = "resolved"
)

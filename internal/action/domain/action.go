package domain

// Provider identifiers double as the PendingAction platform tag.
const (
	ProviderEmail = "email"
	ProviderChat  = "chat"
)

// InboundMessage is the provider-agnostic view of one inbound event. It is
// built by a provider adapter, handed to the ingestion coordinator, and not
// persisted itself.
type InboundMessage struct {
	UserID   string
	Provider string
	Sender   string
	Summary  string
	DeepLink string
	// DedupKey is the stable identifier for the underlying real-world
	// message: the email Message-ID header, or team-channel-ts for chat.
	DedupKey string
}

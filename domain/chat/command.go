package chat

type PostMessageCommand struct {
	Sender   Address
	Receiver Address
	Body     string `validate:"required"`
}

type GetHistoryCommand struct {
	First  Address
	Second Address
	Limit  int `validate:"gte=0"`
}

type CounterpartiesCommand struct {
	Receiver Address
	Kind     ActorKind `validate:"required,oneof=developer entrepreneur"`
}

type CreateNotificationCommand struct {
	Target  Address
	Kind    NotificationKind `validate:"required,max=64"`
	Payload map[string]any
}

package team

type CreatedEvent struct {
	Result *Team
}

type UpdatedEvent struct {
	Result *Team
}

type DeletedEvent struct {
	Result *Team
}

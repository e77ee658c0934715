package role

type CreatedEvent struct {
	Result *Role
}

type UpdatedEvent struct {
	Result *Role
}

type DeletedEvent struct {
	Result *Role
}

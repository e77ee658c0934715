package user

type CreatedEvent struct {
	Result *User
}

type UpdatedEvent struct {
	Result *User
}

type DeletedEvent struct {
	Result *User
}

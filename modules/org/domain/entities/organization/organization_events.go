package organization

type CreatedEvent struct {
	Result *Organization
}

type UpdatedEvent struct {
	Result *Organization
}

type DeletedEvent struct {
	Result *Organization
}

package sector

type CreatedEvent struct {
	Result *Sector
}

type UpdatedEvent struct {
	Result *Sector
}

type DeletedEvent struct {
	Result *Sector
}

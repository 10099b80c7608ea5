package users

type UserRepo interface {
	Upsert(user *User) error
	GetByID(ID string) (*User, error)
}

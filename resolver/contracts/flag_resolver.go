package contracts

import "github.com/FooFooDamon/kmodflags/resolver/models"

type IFlagResolver interface {
	ResolveFlags(filePath string) models.Resolution
}

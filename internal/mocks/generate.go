package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/onboarding --output domain/onboarding --outpkg onboardingmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/bankconnection --output domain/bankconnection --outpkg bankconnectionmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/goal --output domain/goal --outpkg goalmock --filename repository_mock.go

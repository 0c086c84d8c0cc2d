package repository

import (
	bookingRepo "tutorly/database/repository/booking"
	providerRepo "tutorly/database/repository/provider"
)

// Re-export the ProviderRepository interface and constructor.
type ProviderRepository = providerRepo.ProviderRepository

var NewMongoProviderRepo = providerRepo.NewMongoProviderRepo

// Re-export the BookingRepository interface and constructor.
type BookingRepository = bookingRepo.BookingRepository

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

var (
	ErrProviderNotFound = providerRepo.ErrProviderNotFound
	ErrBookingNotFound  = bookingRepo.ErrBookingNotFound
	ErrStateConflict    = bookingRepo.ErrStateConflict
)

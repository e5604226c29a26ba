package models

// Роли пользователей
const (
	RoleProvider = "provider"
	RoleAdmin    = "admin"
	RoleUser     = "user"
)

// Статусы модерации поставщика
const (
	ProviderStatusPending   = "pending"
	ProviderStatusApproved  = "approved"
	ProviderStatusRejected  = "rejected"
	ProviderStatusSuspended = "suspended"
)

// Статусы подписки поставщика
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionFrozen    = "frozen"
	SubscriptionCancelled = "cancelled"
)

// Форматы оказания услуги
const (
	ServiceModeInPerson = "in_person"
	ServiceModeOnline   = "online"
	ServiceModeBoth     = "both"
)

// Способы связи с сотрудником
const (
	ContactMethodEmail = "email"
	ContactMethodPhone = "phone"
	ContactMethodBoth  = "both"
)

// ValidProviderStatuses список допустимых статусов модерации
var ValidProviderStatuses = map[string]struct{}{
	ProviderStatusPending:   {},
	ProviderStatusApproved:  {},
	ProviderStatusRejected:  {},
	ProviderStatusSuspended: {},
}

// ValidSubscriptionStatuses список допустимых статусов подписки
var ValidSubscriptionStatuses = map[string]struct{}{
	SubscriptionTrial:     {},
	SubscriptionActive:    {},
	SubscriptionFrozen:    {},
	SubscriptionCancelled: {},
}

// ValidServiceModes список допустимых форматов услуги
var ValidServiceModes = map[string]struct{}{
	ServiceModeInPerson: {},
	ServiceModeOnline:   {},
	ServiceModeBoth:     {},
}

// ValidContactMethods список допустимых способов связи
var ValidContactMethods = map[string]struct{}{
	ContactMethodEmail: {},
	ContactMethodPhone: {},
	ContactMethodBoth:  {},
}

// CEFRLevels уровни владения языком по шкале CEFR и "native".
var CEFRLevels = map[string]struct{}{
	"A1":     {},
	"A2":     {},
	"B1":     {},
	"B2":     {},
	"C1":     {},
	"C2":     {},
	"native": {},
}

// DefaultCEFRLevel используется, если уровень не указан.
const DefaultCEFRLevel = "B2"

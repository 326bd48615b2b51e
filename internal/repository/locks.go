package repository

// Пространства имён для pg_advisory_xact_lock
const (
	lockNamespaceTutorSlots   int32 = 1
	lockNamespaceParticipants int32 = 2
)

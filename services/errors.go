package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил контестов
	ErrContestNameRequired      = errors.New("contest name is required")
	ErrContestGameRequired      = errors.New("contest game is required")
	ErrContestInvalidSchedule   = errors.New("contest schedule time must be in the future")
	ErrContestInvalidPrizePool  = errors.New("contest prize pool must be positive")
	ErrContestInvalidRoomSize   = errors.New("contest room size must be at least two teams")
	ErrContestInvalidWinners    = errors.New("contest total winners must be positive and fit the room")
	ErrContestInvalidStatus     = errors.New("invalid contest status provided")
	ErrContestInvalidTransition = errors.New("invalid contest status transition")

	// Ошибки распределения призов
	ErrPrizeTiersRequired  = errors.New("prize tiers are required")
	ErrPrizeTiersNotDense  = errors.New("prize tier ranks must be dense, starting at 1")
	ErrPrizePercentInvalid = errors.New("prize tier percent must be between 1 and 100")
	ErrPrizePercentSum     = errors.New("prize tier percentages must sum to exactly 100")

	// Ошибки комнаты и состава
	ErrRoomFull           = errors.New("contest room is full")
	ErrTeamPlayerRequired = errors.New("team must have at least one player")
	ErrContestNotJoinable = errors.New("contest is not open for joining")

	// Ошибки объявления результатов
	ErrContestNotLive       = errors.New("results can be declared only for a live or completed contest")
	ErrContestAlreadyFrozen = errors.New("contest results are declared, the slate is read-only")

	// Ошибки конфликтов
	ErrContestNameConflict = errors.New("contest name already exists")
	ErrRoomSlotConflict    = errors.New("room slot is already taken")
	ErrRoomMemberConflict  = errors.New("player is already in the contest room")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthPasswordTooShort   = errors.New("password is too short")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrContestNotFound     = errors.New("contest not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrDeclarationNotFound = errors.New("results are not declared yet")
)

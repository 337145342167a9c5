package payment

import "go.uber.org/fx"

// Module wires the payment store, state machine and service. A
// TransitionListener must be provided elsewhere.
var Module = fx.Options(
	fx.Provide(NewGormRepository, NewStateMachine, NewService),
)

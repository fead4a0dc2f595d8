// Package model contains the shared interfaces and data structures.
//
// # Criteria for adding a type to this package
//
// This package should contain two kinds of types:
//
// 1. interfaces shared by the runtime, the hook set, and the observers,
// with the objective of keeping those packages independent and making
// unit testing easier;
//
// 2. data shared across packages (e.g., the lifecycle events).
//
// This package should not contain logic, unless the logic is strictly
// related to the data structures and cannot live elsewhere.
//
// # Content of this package
//
// - event.go: the [LifecycleEvent] tagged variant;
//
// - http.go: the [HTTPTransport] interface;
//
// - logger.go: generic definition of an apex/log compatible logger;
//
// - observer.go: the [Observer] capability consumed by the gateway;
//
// - task.go: the [NetworkTask] observed by reference;
//
// - websocket.go: the [WebSocketMessage] tagged variant.
package model

// Package urlsession is a session/task HTTP(S) and WebSocket client built
// on top of net/http, github.com/ooni/oohttp and github.com/gorilla/websocket.
//
// Applications create a [*Session] and obtain tasks from it: data tasks,
// upload tasks and WebSocket tasks. A task does nothing until [*Task.Resume]
// is called. The transfer then runs in a background goroutine which
// delivers response, data and completion callbacks to the optional
// [SessionDelegate] and to the optional completion handler.
//
// Every lifecycle operation (resuming a task, receiving the response,
// receiving a chunk, finishing, creating upload tasks, sending and
// receiving WebSocket messages) is dispatched through the
// [redirect.Class] tables returned by [*Runtime.Classes]. This is what
// allows an interception layer to observe the traffic of any session
// without changes at the call sites. The operations accept `any`
// arguments, so that the tables stay usable across runtime versions
// where the concrete argument types differ.
//
// The set of operations depends on the runtime version: versions older
// than [ModernVersion] deliver the response with [OpDidReceiveResponseSniff]
// and do not support WebSocket, while newer ones use
// [OpDidReceiveResponseSniffRewrite] and define the WebSocket class.
package urlsession

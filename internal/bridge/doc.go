// Package bridge connects fixture controllers to the MQTT bus.
//
// Inbound topics (prefix defaults to "lightmount"):
//
//	{prefix}/power/{fixture|all}    {"level":"low"}
//	{prefix}/damage/{fixture}       {"residual":0,"fire":true}
//	{prefix}/interaction/{fixture}  fixture.InteractionRequest + request_id
//	{prefix}/link/{fixture}         {"switch":"sw-hall"} ("" clears)
//	{prefix}/switch/{switch}/set    {"on":false}
//
// Outbound topics:
//
//	{prefix}/state/{fixture}        retained StateMessage per transition
//	{prefix}/event/{kind}           EventMessage for hazard, item_spawn,
//	                                item_consume, injury, cue, feedback
//
// The Bridge is registered with a device.Registry both as collaborator
// set and as record observer. Outbound traffic goes through a bounded
// queue and one publisher goroutine.
package bridge

/*
Package script reads action scripts and replays them into a store.

A script is a YAML (or JSON) document holding an ordered list of steps:

	name: counter-demo
	steps:
	  - type: INCREMENT
	  - type: ADD
	    payload: {val: 5}
	  - type: STORE_RESULT_ASYNC
	    payload: {result: 6, delay_ms: 10}
	    wait: 50ms

A bare list of steps is accepted too. Step types that name a registered effect
are built through a registry.Registry; everything else is dispatched as a plain
action.
*/
package script

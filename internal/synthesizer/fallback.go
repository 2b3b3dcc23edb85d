package synthesizer

import "github.com/xkilldash9x/formscript/internal/dsl"

// basicNavigation does not depend on the page: it waits for the page to
// settle and clicks the usual cookie and login affordances. The execution
// engine skips clicks on selectors that are not present.
var basicNavigation = dsl.Script{
	dsl.Wait(2),
	dsl.Click("#accept-cookies"),
	dsl.Wait(1),
	dsl.Click("#login"),
	dsl.Wait(2),
}.String()

const emergency = "// manual intervention may be required\nwait 5"

// BasicNavigation returns the content independent fallback script.
func BasicNavigation() string { return basicNavigation }

// Emergency returns the script used when synthesis failed outright.
func Emergency() string { return emergency }

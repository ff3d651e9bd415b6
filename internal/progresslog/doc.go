// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package progresslog provides periodic logging of random value generation
progress.

Long running generation, such as emitting millions of values or drawing from a
slow remote provider, is otherwise silent apart from its output.  A Logger
accumulates the number of values and bytes produced along with the number of
pool reseeds and logs a summary at most every 10 seconds.

Outstanding totals may be flushed immediately by forcing a log message, which
is typically done once generation completes.
*/
package progresslog

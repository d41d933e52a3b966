package words

import _ "embed"

// Schema creates the words table and the get_random_words function the
// repositories call.
//
//go:embed schema.sql
var Schema string

// Package llmassert provides test assertions for the output of large language models.
//
// An Asserter checks whether a response is factual, satisfies a statement,
// semantically matches an expected text, called the expected tools or
// matches a JSON schema. Each assertion reports a failure through t.Errorf,
// like testify's assert package, and has a Not twin that expects the opposite.
//
//	func TestGreeting(t *testing.T) {
//		asserter, err := llmassert.Default()
//		require.NoError(t, err)
//
//		response := callMyAssistant(t, "Hello")
//		asserter.SatisfyStatement(t, response, "It asks for the user's name.")
//		asserter.SemanticallyMatch(t, response, "Hi, what is your name?", llmassert.WithSimilarity(llmassert.SimilarityMedium))
//	}
//
// Credentials are read from OPENAI_API_KEY, or from the AZURE_OPENAI_API_* variables
// for Azure OpenAI, and other settings from an optional llmassert.yml file.
package llmassert

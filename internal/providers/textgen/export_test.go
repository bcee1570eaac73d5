package textgen

var ClassifyGenAIError = classifyGenAIError

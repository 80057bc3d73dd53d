// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

// builtin is the catalogue shipped with the binary, most popular first.
// `aloha catalog update` writes a fresher list to the user catalogue.
var builtin = []Family{
	{Name: "deepseek-r1", Variants: []string{"1.5b", "7b", "8b", "14b", "32b", "70b", "671b"}},
	{Name: "llama3.3", Variants: []string{"tools", "70b"}},
	{Name: "phi4", Variants: []string{"14b"}},
	{Name: "llama3.2", Variants: []string{"tools", "1b", "3b"}},
	{Name: "llama3.1", Variants: []string{"tools", "8b", "70b", "405b"}},
	{Name: "nomic-embed-text", Variants: []string{"embedding"}},
	{Name: "mistral", Variants: []string{"tools", "7b"}},
	{Name: "llama3", Variants: []string{"8b", "70b"}},
	{Name: "qwen", Variants: []string{"0.5b", "1.8b", "4b", "7b", "14b", "32b", "72b", "110b"}},
	{Name: "gemma", Variants: []string{"2b", "7b"}},
	{Name: "qwen2", Variants: []string{"tools", "0.5b", "1.5b", "7b", "72b"}},
	{Name: "qwen2.5", Variants: []string{"tools", "0.5b", "1.5b", "3b", "7b", "14b", "32b", "72b"}},
	{Name: "phi3", Variants: []string{"3.8b", "14b"}},
	{Name: "llama2", Variants: []string{"7b", "13b", "70b"}},
	{Name: "llava", Variants: []string{"vision", "7b", "13b", "34b"}},
	{Name: "gemma2", Variants: []string{"2b", "9b", "27b"}},
	{Name: "qwen2.5-coder", Variants: []string{"tools", "0.5b", "1.5b", "3b", "7b", "14b", "32b"}},
	{Name: "codellama", Variants: []string{"7b", "13b", "34b", "70b"}},
	{Name: "tinyllama", Variants: []string{"1.1b"}},
	{Name: "mxbai-embed-large", Variants: []string{"embedding", "335m"}},
	{Name: "mistral-nemo", Variants: []string{"tools", "12b"}},
	{Name: "llama3.2-vision", Variants: []string{"vision", "11b", "90b"}},
	{Name: "starcoder2", Variants: []string{"3b", "7b", "15b"}},
	{Name: "snowflake-arctic-embed", Variants: []string{"embedding", "22m", "33m", "110m", "137m", "335m"}},
	{Name: "mixtral", Variants: []string{"tools", "8x7b", "8x22b"}},
	{Name: "deepseek-coder-v2", Variants: []string{"16b", "236b"}},
	{Name: "dolphin-mixtral", Variants: []string{"8x7b", "8x22b"}},
	{Name: "phi", Variants: []string{"2.7b"}},
	{Name: "codegemma", Variants: []string{"2b", "7b"}},
	{Name: "deepseek-coder", Variants: []string{"1.3b", "6.7b", "33b"}},
	{Name: "llama2-uncensored", Variants: []string{"7b", "70b"}},
	{Name: "wizardlm2", Variants: []string{"7b", "8x22b"}},
	{Name: "dolphin-mistral", Variants: []string{"7b"}},
	{Name: "all-minilm", Variants: []string{"embedding", "22m", "33m"}},
	{Name: "dolphin-llama3", Variants: []string{"8b", "70b"}},
	{Name: "command-r", Variants: []string{"tools", "35b"}},
	{Name: "bge-m3", Variants: []string{"embedding", "567m"}},
	{Name: "orca-mini", Variants: []string{"3b", "7b", "13b", "70b"}},
	{Name: "yi", Variants: []string{"6b", "9b", "34b"}},
	{Name: "llava-llama3", Variants: []string{"vision", "8b"}},
	{Name: "zephyr", Variants: []string{"7b", "141b"}},
	{Name: "phi3.5", Variants: []string{"3.8b"}},
	{Name: "codestral", Variants: []string{"22b"}},
	{Name: "starcoder", Variants: []string{"1b", "3b", "7b", "15b"}},
	{Name: "granite-code", Variants: []string{"3b", "8b", "20b", "34b"}},
	{Name: "vicuna", Variants: []string{"7b", "13b", "33b"}},
	{Name: "smollm", Variants: []string{"135m", "360m", "1.7b"}},
	{Name: "wizard-vicuna-uncensored", Variants: []string{"7b", "13b", "30b"}},
	{Name: "mistral-openorca", Variants: []string{"7b"}},
	{Name: "qwq", Variants: []string{"tools", "32b"}},
	{Name: "llama2-chinese", Variants: []string{"7b", "13b"}},
	{Name: "smollm2", Variants: []string{"tools", "135m", "360m", "1.7b"}},
	{Name: "codegeex4", Variants: []string{"9b"}},
	{Name: "openchat", Variants: []string{"7b"}},
	{Name: "aya", Variants: []string{"8b", "35b"}},
	{Name: "deepseek-v3", Variants: []string{"671b"}},
	{Name: "codeqwen", Variants: []string{"7b"}},
	{Name: "nous-hermes2", Variants: []string{"10.7b", "34b"}},
	{Name: "mistral-large", Variants: []string{"tools", "123b"}},
	{Name: "command-r-plus", Variants: []string{"tools", "104b"}},
	{Name: "openhermes", Variants: []string{}},
	{Name: "stable-code", Variants: []string{"3b"}},
	{Name: "tinydolphin", Variants: []string{"1.1b"}},
	{Name: "glm4", Variants: []string{"9b"}},
	{Name: "wizardcoder", Variants: []string{"33b"}},
	{Name: "qwen2-math", Variants: []string{"1.5b", "7b", "72b"}},
	{Name: "bakllava", Variants: []string{"vision", "7b"}},
	{Name: "stablelm2", Variants: []string{"1.6b", "12b"}},
	{Name: "deepseek-llm", Variants: []string{"7b", "67b"}},
	{Name: "reflection", Variants: []string{"70b"}},
	{Name: "moondream", Variants: []string{"vision", "1.8b"}},
	{Name: "neural-chat", Variants: []string{"7b"}},
	{Name: "llama3-gradient", Variants: []string{"8b", "70b"}},
	{Name: "wizard-math", Variants: []string{"7b", "13b", "70b"}},
	{Name: "llama3-chatqa", Variants: []string{"8b", "70b"}},
	{Name: "deepseek-v2", Variants: []string{"16b", "236b"}},
	{Name: "sqlcoder", Variants: []string{"7b", "15b"}},
	{Name: "xwinlm", Variants: []string{"7b", "13b"}},
	{Name: "minicpm-v", Variants: []string{"vision", "8b"}},
	{Name: "nous-hermes", Variants: []string{"7b", "13b"}},
}

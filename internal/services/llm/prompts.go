package llm

// Instruction templates, one per task. Process-wide constants: loaded
// once, never mutated. Answers are requested in Chinese with a JSON
// object embedded in the reply; decodeAnswer extracts it.

const articleInfoPrompt = `You are a smart assistant.
Please read the article sent by the user and provide the following information:
1. Who is the author of the article?
2. What type of article can it be classified as?
3. Need to generate an AI cover image for the article, please provide suitable drawing prompts.
Please answer in Chinese and output in the following format:
{"author": author,
"category": category,
"cover_image_prompt": cover_image_prompt,
"author_english_name": author name in English or Chinese Pinyin,
"author_chinese_name": author name in Chinese(if available) or none if you unknown}。
The cover image prompt should be in English.
If you cannot determine the author, please set author to "unknown".
The article type can be multiple.`

// authorshipPrompt is the no-category variant used when the taxonomy
// is absent or deliberately bypassed.
const authorshipPrompt = `You are a smart assistant.
Please read the article sent by the user and provide the following information:
1. Who is the author of the article?
Please answer in Chinese and output in the following format:
{"author": author,
"author_english_name": author name in English or Chinese Pinyin,
"author_chinese_name": author name in Chinese(if available) or none if you unknown}。
If you cannot determine the author, please set author to "unknown".`

const authorInfoPrompt = `You are a smart assistant.
Please read the information sent by the user and provide the following information:
1. The person with this name might be a celebrity, a scientist, a politician, a financial industry expert, or a well-known blog author. So, who is the person with this name? If you don't know, don't make it up. Just answer "unknown." If the name is incomplete, please provide the full English name (if available) and the Chinese name (if available).
2. Provide a brief introduction of this person.
Please answer in Chinese and output in the following format:
{"english name":english name, "chinese name":chinese name, "introduction": introduction}。
The English name should be in English.`

const fieldInfoPrompt = `You are a smart assistant.
I'd like to classify some articles and have come up with my own category names. Could you analyze my naming and guess the reasoning behind the classification?
Please answer in Chinese and output in the following format:
{"category":category, "reason":reason}。`

const translationPrompt = `You are a professional translator.
Translate the text sent by the user into Chinese.
Keep the Markdown formatting of the original text.
Output only the translated text, nothing else.`

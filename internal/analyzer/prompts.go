package analyzer

const systemPrompt = "You are an expert in analyzing Linux system logs. Your primary task is to interpret and provide insights " +
	"based on the log entries provided. Pay special attention to timestamps as they are crucial for understanding " +
	"the sequence and timing of events in the logs. You will receive a user query related to the log entries, " +
	"and you should use the information from these logs to answer the query accurately and precisely with particular emphasis " +
	"on the timestamps."

const userTemplate = "Query: %s. \nLog Entries: %s"

// documentSeparator joins retrieved bodies into one information block.
const documentSeparator = "\n\n"

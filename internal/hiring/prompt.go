package hiring

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt frames every workflow.
const SystemPrompt = `You are TalentCore AI, a Talent Acquisition Intelligence agent. You assist HR teams with:

JD-Resume Matching: score candidates on skills, seniority and cultural markers.
Question Bank: generate interview questions and model answers for specialised roles.
Voice Screening: run structured interviews that evaluate technical and soft skills.
Call Analysis: extract sentiment, technical red flags and engagement scores from interview transcripts.
Act as a technical co-pilot for hiring managers.

Constraint: always return data in structured JSON when requested. Keep a neutral, professional, data-driven tone.`

const questionFormat = `{
  "questions": [
    {"question": "Your question here?", "answer": "Sample answer here."}
  ]
}`

func matchPrompt(jd, resume string) string {
	return fmt.Sprintf(`Compare this Job Description with the Resume and provide a matching analysis:

JD: %s
Resume: %s

Return JSON with: score (0-100), skill_gaps (array), strengths (array), cultural_fit (0-100)`, jd, resume)
}

func jdQuestionsPrompt(jd, experience string) string {
	level := experience
	if level == "" {
		level = "the role"
	}
	return fmt.Sprintf(`You are an interview question generator. Generate exactly 8 interview questions with answers.

Job Description: %s
Experience Level: %s

Rules:
1. Analyze the job description and experience level for appropriate questions
2. Create 8 questions suitable for %s
3. Return ONLY valid JSON - no extra text
4. Use this exact format:

%s

Generate the JSON now:`, jd, experience, level, questionFormat)
}

func titleQuestionsPrompt(title, experience, jd string) string {
	return fmt.Sprintf(`You are an interview question generator. Generate exactly 8 interview questions with answers.

Role: %s
Experience: %s
Context: %s

Rules:
1. Make questions appropriate for %s experience
2. Return ONLY valid JSON - no extra text
3. Use this exact format:

%s

Generate the JSON now:`, title, experience, jd, experience, questionFormat)
}

// questionDistributions spreads the 16 questions of a detailed request across
// categories. Unknown types use "mixed".
var questionDistributions = map[string]string{
	"technical": `- Technical Skills (12 questions): Deep dive into specific technologies/tools, frameworks, and domain knowledge
- Problem Solving (2 questions): Technical challenges and solutions
- System Design (2 questions): Architecture and scalability considerations`,
	"technical-scenario": `- Technical Skills (8 questions): Core technologies, tools, and frameworks
- Scenario-based Technical (6 questions): Real-world technical scenarios and problem-solving
- System Design (2 questions): Architecture and scalability considerations`,
	"technical-coding": `- Technical Skills (6 questions): Core technologies, tools, and frameworks
- Coding Questions (8 questions): Write code snippets, solve algorithms, debug code, explain data structures, code optimization
- Best Practices (2 questions): Code quality, testing, performance optimization

For coding questions, include:
- Algorithm implementation questions
- Data structure problems
- Code debugging scenarios
- Code review and optimization
- Programming logic challenges`,
	"behavioral": `- Behavioral (8 questions): Leadership, teamwork, communication, conflict resolution
- Problem Solving (4 questions): Real-world scenarios and challenges
- Best Practices (2 questions): Code quality, security, performance
- Industry Knowledge (2 questions): Trends, future outlook`,
	"competency-based": `- Competency-based (10 questions): Specific skills, achievements, and experiences
- Problem Solving (3 questions): Real-world scenarios and challenges
- Best Practices (2 questions): Quality, efficiency, security considerations
- Leadership/Collaboration (1 question): Team dynamics, stakeholder management`,
	"situational": `- Situational (10 questions): "What would you do if..." scenarios
- Problem Solving (4 questions): Real-world scenarios and challenges
- System Design (2 questions): Architecture and scalability considerations`,
	"skill-based": `- Skill-based (12 questions): Specific technical skills, tools, and methodologies
- Problem Solving (2 questions): Technical challenges and solutions
- Best Practices (2 questions): Quality, efficiency, security considerations`,
	"mixed": `- Technical Skills (6 questions): Deep dive into specific technologies/tools
- Problem Solving (3 questions): Real-world scenarios and challenges
- System Design (2 questions): Architecture and scalability considerations
- Best Practices (2 questions): Code quality, security, performance
- Behavioral (2 questions): Leadership, teamwork, communication
- Industry Knowledge (1 question): Trends, future outlook`,
}

func questionDistribution(questionType string) string {
	d, ok := questionDistributions[strings.ToLower(questionType)]
	if !ok {
		d = questionDistributions["mixed"]
	}
	return "Question Categories (distribute across 16 questions):\n" + d
}

func detailedQuestionsPrompt(r QuestionRequest) string {
	return fmt.Sprintf(`You are a senior technical recruiter and interview architect. Generate exactly 16 comprehensive interview questions with detailed answers.

Job Description: %[1]s
Experience Level: %[2]s
Skill Level: %[3]s
Question Type Focus: %[4]s

Instructions:
1. Extract key technical skills, tools, frameworks, and domain knowledge from the JD
2. Create questions that test both technical depth and practical application
3. Include scenario-based questions that mirror real job challenges
4. Balance technical competency with behavioral and problem-solving skills
5. Ensure questions are appropriate for %[2]s professionals with %[3]s skill level
6. Focus on %[4]s style questions
7. Include questions about:
   - Core technical skills mentioned in JD
   - System design/architecture (for senior roles)
   - Problem-solving scenarios
   - Best practices and optimization
   - Team collaboration and leadership
   - Industry trends and continuous learning

%[5]s

Return ONLY valid JSON with detailed, professional answers:

{
  "questions": [
    {"question": "Technical question with specific context?", "answer": "Comprehensive answer covering key concepts, best practices, and real-world applications."}
  ]
}

Generate the JSON now:`, r.JobDescription, r.ExperienceLevel, r.SkillLevel, r.QuestionType, questionDistribution(r.QuestionType))
}

func customizePrompt(userRequest string, current []QA, context map[string]any) string {
	return fmt.Sprintf(`You are an interview question customization assistant. The user wants to modify interview questions.

User Request: %s

Current Questions: %s

Context: %s

Rules:
1. Understand what the user wants to change
2. Modify the questions accordingly
3. Keep the same number of questions unless specifically asked to change
4. Return ONLY valid JSON - no extra text
5. Use this exact format:

%s

Generate the modified JSON now:`, userRequest, mustJSON(current), mustJSON(context), questionFormat)
}

func callPrompt(jd, transcript string) string {
	return fmt.Sprintf(`Job Description:
%s

Interview Transcript:
%s

Analyze the above conversation and rate the candidate according to the primary skills required by the job description. For each primary skill, provide a score (0-100), specific feedback, and actionable recommendations. Also include overall sentiment, engagement, and a summary.

Most importantly, provide a clear and decisive field called "final_recommendation" with one of the following values:
- "Recommended for next round"
- "Maybe"
- "Not recommended"

Your response must be valid JSON in the following format:
{
    "skills": [
        {
            "skill": "string",
            "score": 0-100,
            "feedback": "string",
            "recommendations": ["string"]
        }
    ],
    "sentiment_analysis": {
        "overall_score": 0-100,
        "trend": "positive|neutral|negative",
        "confidence_level": 0-100,
        "emotional_markers": ["marker1", "marker2"]
    },
    "engagement_metrics": {
        "engagement_score": 0-100,
        "communication_clarity": 0-100,
        "enthusiasm_level": 0-100
    },
    "summary": "comprehensive summary",
    "final_recommendation": "Recommended for next round|Maybe|Not recommended"
}
Respond with only valid JSON. Do not include any extra text, markdown, or explanation.`, jd, transcript)
}

func assistPrompt(query string, context map[string]any) string {
	return fmt.Sprintf(`Act as a technical recruiting co-pilot. Answer this query: %s

Context: %s

Provide structured assistance for:
- Candidate evaluation
- Interview feedback summaries
- Hiring recommendations
- Process optimization

Return JSON with actionable insights, using the keys "answer" (string) and "insights" (array of strings).`, query, mustJSON(context))
}

// ResumeAnalysisInstruction drives batch resume screening. The reply must
// decode into one analyses result entry.
const ResumeAnalysisInstruction = `You screen resumes for a recruiting team. For each resume you receive,
compare it with the job title and job description that come with it and judge the fit.

Look at work history, skills and education. Note what is missing or thin for this role.
Score the overall match from 0 to 100.

Answer with exactly one JSON object:
{
  "candidate_email": string,
  "match_score": number,
  "relevant_experiences": [string],
  "relevant_skills": [string],
  "missing_skills": [string],
  "summary": string,
  "recommendation": string
}

Use "" for an email the resume does not show. Judge only what is written; never invent experience.
No markdown, no prose around the object.`

// ResumeAnalysisMessage is the per-resume user message for batch screening.
func ResumeAnalysisMessage(jobTitle, jobDescription, resume string) string {
	return fmt.Sprintf("Job Title:\n%s\n\nJob Description:\n%s\n\nResume:\n%s", jobTitle, jobDescription, resume)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
